package manager

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/Justype/simmaker/internal/simulation"
	"github.com/zeebo/xxh3"
)

// Identity is the XXH3-128 of the canonical JSON of the simulation's
// filtered settings, hex encoded. Excluded settings and global settings
// do not take part in it.
func Identity(sim *simulation.Simulation) (string, error) {
	// encoding/json sorts map keys
	data, err := json.Marshal(sim.Settings())
	if err != nil {
		return "", fmt.Errorf("failed to encode settings: %w", err)
	}

	h := xxh3.New()
	if _, err := h.Write(data); err != nil {
		return "", err
	}
	return hex.EncodeToString(uint128ToBytes(h.Sum128())), nil
}

func uint128ToBytes(a xxh3.Uint128) []byte {
	b := make([]byte, 16)
	binary.LittleEndian.PutUint64(b[0:8], a.Lo)
	binary.LittleEndian.PutUint64(b[8:16], a.Hi)
	return b
}
