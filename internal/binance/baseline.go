package binance

import (
	"context"
	"log"
	"strconv"
	"strings"

	gobinance "github.com/adshao/go-binance/v2"
)

// baselineCandles is 24h of 5-minute candles.
const baselineCandles = 288

// FetchVolumeBaselines computes the average 5-minute volume over the last
// 24 hours for each symbol, via the Binance REST API. A symbol whose fetch
// fails gets the disabled sentinel so the volume detector stays quiet for
// it rather than firing on garbage.
//
// The baseline is computed once at startup and never refreshed.
func FetchVolumeBaselines(ctx context.Context, symbols []string) map[string]float64 {
	log.Println("[INFO] binance: 正在初始化历史成交量基准...")
	client := gobinance.NewClient("", "")

	baseline := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		symbol := strings.ToUpper(s)
		klines, err := client.NewKlinesService().
			Symbol(symbol).
			Interval("5m").
			Limit(baselineCandles).
			Do(ctx)
		if err != nil || len(klines) == 0 {
			log.Printf("[ERROR] binance: 初始化成交量失败 [%s]: %v", symbol, err)
			baseline[symbol] = disabledBaseline
			continue
		}

		total := 0.0
		for _, k := range klines {
			v, err := strconv.ParseFloat(k.Volume, 64)
			if err != nil {
				continue
			}
			total += v
		}
		avg := total / float64(len(klines))
		baseline[symbol] = avg
		log.Printf("[INFO] binance: [%s] 24h平均5min成交量: %.2f", symbol, avg)
	}
	return baseline
}
