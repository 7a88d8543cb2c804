package runner

import (
	"context"
	"log"
	"sync"
	"time"
)

// restartDelay is the fixed pause before a crashed bot is relaunched.
// There is no backoff or crash-loop protection beyond this interval.
const restartDelay = 10 * time.Second

// Bot is one supervised unit of work. Run blocks until the bot stops; a
// nil or ctx-cancellation error means a clean exit, anything else is a
// crash and triggers a restart.
type Bot interface {
	Name() string
	Run(ctx context.Context) error
}

// Supervisor runs a set of bots concurrently and restarts any that exit
// while the context is still live.
type Supervisor struct {
	bots []Bot
}

// NewSupervisor creates a supervisor over the given bots.
func NewSupervisor(bots ...Bot) *Supervisor {
	return &Supervisor{bots: bots}
}

// Run launches every bot and blocks until ctx ends and all bots have
// returned.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, b := range s.bots {
		wg.Add(1)
		go func(b Bot) {
			defer wg.Done()
			s.supervise(ctx, b)
		}(b)
	}
	log.Printf("[INFO] runner: 已启动 %d 个机器人", len(s.bots))
	wg.Wait()
}

// supervise runs one bot in a restart loop.
func (s *Supervisor) supervise(ctx context.Context, b Bot) {
	for {
		log.Printf("[INFO] runner: 启动机器人 [%s]", b.Name())
		err := s.runOnce(ctx, b)

		if ctx.Err() != nil {
			log.Printf("[INFO] runner: 机器人 [%s] 已停止", b.Name())
			return
		}
		log.Printf("[WARN] runner: 机器人 [%s] 退出 (%v)，%s后重启", b.Name(), err, restartDelay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(restartDelay):
		}
	}
}

// runOnce executes b.Run with panic containment, so one crashing bot
// never takes down the process.
func (s *Supervisor) runOnce(ctx context.Context, b Bot) (err error) {
	defer func() {
		if p := recover(); p != nil {
			log.Printf("[ERROR] runner: 机器人 [%s] panic: %v", b.Name(), p)
		}
	}()
	return b.Run(ctx)
}
