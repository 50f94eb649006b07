package catalogs

import (
	"encoding/json"
	"fmt"
	"os"
)

// Layout seeds a fresh world: machines, pads and rockets placed before tick 0.
type Layout struct {
	Loaders []LoaderPlacement `json:"loaders"`
	Pads    []PadPlacement    `json:"pads"`
	Rockets []RocketPlacement `json:"rockets"`
}

type LoaderPlacement struct {
	Pos     [3]int `json:"pos"`
	Recheck string `json:"recheck,omitempty"` // direction to probe on the first tick
}

type PadPlacement struct {
	Center [3]int `json:"center"`
}

type RocketPlacement struct {
	ID   string `json:"id"`
	Pad  [3]int `json:"pad"`
	Fuel int64  `json:"fuel,omitempty"`
}

func loadLayout(path string, out *Layout) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("layout.json: %w", err)
	}
	seen := map[string]bool{}
	for _, r := range out.Rockets {
		if r.ID == "" {
			return fmt.Errorf("layout.json: rocket without id")
		}
		if seen[r.ID] {
			return fmt.Errorf("layout.json: duplicate rocket %s", r.ID)
		}
		seen[r.ID] = true
	}
	return nil
}
