package sessionledger

import (
	"encoding/json"
	"os"

	"go.uber.org/zap"

	"drape/leon/admin-service/biz/domain"
	"drape/leon/admin-service/config"
)

// ShortIDLen is how many characters the container runtime keeps when it
// prints short ids. The ledger writer records full 64-char ids, the runtime
// enumeration returns short ones, so every entry is indexed under both.
const ShortIDLen = 12

type ledgerRow struct {
	ContainerID string `json:"containerId"`
	LastUsed    int64  `json:"lastUsed"`
	ProjectID   string `json:"projectId"`
	UserID      string `json:"userId"`
}

// Reader reads the sessions ledger file maintained by the backend process.
// The file is owned by that process; a missing or half-written file is normal
// here and yields an empty map, never an error.
type Reader struct {
	Path string
}

func NewReader(cfg *config.Config) *Reader {
	return &Reader{Path: cfg.Ledger.Path}
}

func (r *Reader) Read() map[string]domain.SessionEntry {
	res := map[string]domain.SessionEntry{}

	raw, err := os.ReadFile(r.Path)
	if err != nil {
		zap.L().Debug("sessions ledger not readable", zap.String("path", r.Path), zap.Error(err))
		return res
	}

	var rows []ledgerRow
	if err := json.Unmarshal(raw, &rows); err != nil {
		zap.L().Debug("sessions ledger not parseable", zap.String("path", r.Path), zap.Error(err))
		return res
	}

	for _, row := range rows {
		if row.ContainerID == "" {
			continue
		}
		entry := domain.SessionEntry{
			LastUsedMs: row.LastUsed,
			ProjectID:  row.ProjectID,
			UserID:     row.UserID,
		}
		res[row.ContainerID] = entry
		if len(row.ContainerID) > ShortIDLen {
			res[row.ContainerID[:ShortIDLen]] = entry
		}
	}
	return res
}
