package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type Catalogs struct {
	Blocks  BlockCatalog
	Items   ItemCatalog
	Fluids  FluidCatalog
	Recipes RecipeCatalog
	Layout  Layout
}

type BlockCatalog struct {
	Palette       []string
	Defs          map[string]BlockDef
	PaletteDigest string
	DefsDigest    string
}

type BlockDef struct {
	ID          string `json:"id"`
	Solid       bool   `json:"solid"`
	BlockEntity string `json:"block_entity,omitempty"` // "FUEL_LOADER", "LAUNCH_PAD"
}

type ItemCatalog struct {
	Palette       []string
	Defs          map[string]ItemDef
	PaletteDigest string
	DefsDigest    string
}

type ItemDef struct {
	ID             string `json:"id"`
	Kind           string `json:"kind"` // "BATTERY","CANISTER","MATERIAL","BLOCK"
	PlaceAs        string `json:"place_as,omitempty"`
	EnergyCapacity int64  `json:"energy_capacity,omitempty"`
	FluidCapacity  int64  `json:"fluid_capacity,omitempty"`
	MaxStack       int    `json:"max_stack,omitempty"`
}

type FluidCatalog struct {
	Defs   map[string]FluidDef
	Digest string
}

type FluidDef struct {
	ID   string   `json:"id"`
	Tags []string `json:"tags,omitempty"`
}

// RecipeCatalog keeps recipe entries undecoded; the recipe registry owns the
// per-type formats.
type RecipeCatalog struct {
	Entries []RecipeEntry
	Digest  string
}

type RecipeEntry struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Raw  json.RawMessage `json:"-"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs

	if err := loadBlocks(filepath.Join(configDir, "blocks.json"), &c.Blocks); err != nil {
		return nil, err
	}
	if err := loadItems(filepath.Join(configDir, "items.json"), &c.Items); err != nil {
		return nil, err
	}
	if err := loadFluids(filepath.Join(configDir, "fluids.json"), &c.Fluids); err != nil {
		return nil, err
	}
	if err := loadRecipes(filepath.Join(configDir, "recipes.json"), &c.Recipes); err != nil {
		return nil, err
	}
	if err := loadLayout(filepath.Join(configDir, "layout.json"), &c.Layout); err != nil {
		return nil, err
	}
	return &c, nil
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBlocks(path string, out *BlockCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []BlockDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("blocks.json: %w", err)
	}
	out.Defs = map[string]BlockDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("blocks.json: empty id")
		}
		out.Defs[d.ID] = d
	}
	if _, ok := out.Defs["AIR"]; !ok {
		return fmt.Errorf("blocks.json: missing AIR")
	}
	ids := sortedKeys(out.Defs)
	out.Palette = append([]string{"AIR"}, filterOut(ids, "AIR")...)
	palJSON, _ := json.Marshal(out.Palette)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadItems(path string, out *ItemCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	var defs []ItemDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("items.json: %w", err)
	}
	out.Defs = map[string]ItemDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("items.json: empty id")
		}
		switch d.Kind {
		case "BATTERY":
			if d.EnergyCapacity <= 0 {
				return fmt.Errorf("items.json: %s: battery without energy_capacity", d.ID)
			}
		case "CANISTER":
			if d.FluidCapacity <= 0 {
				return fmt.Errorf("items.json: %s: canister without fluid_capacity", d.ID)
			}
		}
		out.Defs[d.ID] = d
	}
	out.Palette = sortedKeys(out.Defs)
	palJSON, _ := json.Marshal(out.Palette)
	out.PaletteDigest = sha256Hex(palJSON)
	return nil
}

func loadFluids(path string, out *FluidCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var defs []FluidDef
	if err := json.Unmarshal(raw, &defs); err != nil {
		return fmt.Errorf("fluids.json: %w", err)
	}
	out.Defs = map[string]FluidDef{}
	for _, d := range defs {
		if d.ID == "" {
			return fmt.Errorf("fluids.json: empty id")
		}
		out.Defs[d.ID] = d
	}
	return nil
}

func loadRecipes(path string, out *RecipeCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("recipes.json: %w", err)
	}
	seen := map[string]bool{}
	out.Entries = make([]RecipeEntry, 0, len(entries))
	for i, b := range entries {
		var e RecipeEntry
		if err := json.Unmarshal(b, &e); err != nil {
			return fmt.Errorf("recipes.json[%d]: %w", i, err)
		}
		if e.ID == "" || e.Type == "" {
			return fmt.Errorf("recipes.json[%d]: missing id or type", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("recipes.json: duplicate recipe %s", e.ID)
		}
		seen[e.ID] = true
		e.Raw = b
		out.Entries = append(out.Entries, e)
	}
	return nil
}

func sortedKeys[T any](m map[string]T) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func filterOut(in []string, remove string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == remove {
			continue
		}
		out = append(out, s)
	}
	return out
}
