package news

import (
	"encoding/json"
	"os"
)

// stateFile is the durable change-detection state: the fingerprint of the
// last news item that was alerted. It survives restarts so the poller does
// not re-announce the item it stopped on.
type stateFile struct {
	LastFingerprint string `json:"last_fingerprint"`
}

// LoadFingerprint reads the persisted fingerprint. A missing file yields
// an empty fingerprint, not an error.
func LoadFingerprint(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	var st stateFile
	if err := json.Unmarshal(data, &st); err != nil {
		return "", err
	}
	return st.LastFingerprint, nil
}

// SaveFingerprint overwrites the persisted fingerprint.
func SaveFingerprint(path, fingerprint string) error {
	data, err := json.Marshal(stateFile{LastFingerprint: fingerprint})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
