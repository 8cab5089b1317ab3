package idhash

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	"leap-portfolio-lab/internal/domain"
)

// ComputeResultID computes a deterministic result_id using SHA256.
// Formula: SHA256(json(config)|date:close|date:close|...)
// Returns base58-encoded hash.
func ComputeResultID(cfg domain.Config, table domain.PriceTable) string {
	var b strings.Builder

	// Marshal of a plain struct cannot fail; an error still leaves a usable prefix.
	params, err := json.Marshal(cfg)
	if err != nil {
		params = []byte(fmt.Sprintf("%+v", cfg))
	}
	b.Write(params)

	for _, row := range table {
		b.WriteByte('|')
		b.WriteString(row.Date.Format(domain.DateLayout))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(row.Close, 'g', -1, 64))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(row.Volatility, 'g', -1, 64))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return base58.Encode(hash[:])
}

// ComputeBatchID computes a deterministic id for a Monte Carlo batch.
// Formula: SHA256(json(config)|runs|seed)
func ComputeBatchID(cfg domain.Config) string {
	params, err := json.Marshal(cfg)
	if err != nil {
		params = []byte(fmt.Sprintf("%+v", cfg))
	}
	data := fmt.Sprintf("%s|%d|%d", params, cfg.Simulation.Runs, cfg.Simulation.Seed)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:])
}
