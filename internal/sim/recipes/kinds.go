package recipes

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

var (
	Fabrication = Identifier{Namespace: DefaultNamespace, Path: "fabrication"}
	Compressing = Identifier{Namespace: DefaultNamespace, Path: "compressing"}
)

// Kinds holds the handles produced by Bootstrap.
type Kinds struct {
	FabricationType       TypeHandle
	FabricationSerializer SerializerHandle
	CompressingType       TypeHandle
	CompressingSerializer SerializerHandle
}

// Bootstrap registers the built-in recipe kinds. Call once per registry.
func Bootstrap(r *Registry) (Kinds, error) {
	var k Kinds
	var err error
	if k.FabricationType, err = r.RegisterType(Fabrication); err != nil {
		return k, err
	}
	if k.FabricationSerializer, err = r.RegisterSerializer(Fabrication, SerializerFunc(decodeFabrication)); err != nil {
		return k, err
	}
	if k.CompressingType, err = r.RegisterType(Compressing); err != nil {
		return k, err
	}
	if k.CompressingSerializer, err = r.RegisterSerializer(Compressing, SerializerFunc(decodeCompressing)); err != nil {
		return k, err
	}
	return k, nil
}

// FabricationRecipe turns one ingredient into its result.
type FabricationRecipe struct {
	ID         string
	Ingredient string
	Out        ItemCount
	Ticks      int
}

func (f *FabricationRecipe) RecipeID() string  { return f.ID }
func (f *FabricationRecipe) Type() Identifier  { return Fabrication }
func (f *FabricationRecipe) Result() ItemCount { return f.Out }
func (f *FabricationRecipe) TimeTicks() int    { return f.Ticks }
func (f *FabricationRecipe) Inputs() []string  { return []string{f.Ingredient} }

func (f *FabricationRecipe) Matches(item string) bool { return item == f.Ingredient }

type fabricationJSON struct {
	Ingredient string    `json:"ingredient"`
	Result     ItemCount `json:"result"`
	TimeTicks  int       `json:"time_ticks"`
}

func decodeFabrication(id string, raw json.RawMessage) (Recipe, error) {
	var j fabricationJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, err
	}
	if j.Ingredient == "" {
		return nil, fmt.Errorf("fabrication: missing ingredient")
	}
	out, err := checkResult(j.Result)
	if err != nil {
		return nil, err
	}
	return &FabricationRecipe{ID: id, Ingredient: j.Ingredient, Out: out, Ticks: defaultTicks(j.TimeTicks)}, nil
}

// CompressingRecipe is either shaped (Pattern + Key) or shapeless
// (Ingredients) over a 3x3 grid.
type CompressingRecipe struct {
	ID          string
	Pattern     []string
	Key         map[byte]string
	Ingredients []string
	Out         ItemCount
	Ticks       int
}

func (c *CompressingRecipe) RecipeID() string  { return c.ID }
func (c *CompressingRecipe) Type() Identifier  { return Compressing }
func (c *CompressingRecipe) Result() ItemCount { return c.Out }
func (c *CompressingRecipe) TimeTicks() int    { return c.Ticks }
func (c *CompressingRecipe) Shaped() bool      { return len(c.Pattern) > 0 }

func (c *CompressingRecipe) Inputs() []string {
	if !c.Shaped() {
		return append([]string(nil), c.Ingredients...)
	}
	out := make([]string, 0, 9)
	for _, row := range c.Pattern {
		for i := 0; i < len(row); i++ {
			if it, ok := c.Key[row[i]]; ok {
				out = append(out, it)
			}
		}
	}
	return out
}

// Matches checks a 3x3 grid given row-major; empty cells are "".
func (c *CompressingRecipe) Matches(grid [9]string) bool {
	if !c.Shaped() {
		var have []string
		for _, it := range grid {
			if it != "" {
				have = append(have, it)
			}
		}
		want := append([]string(nil), c.Ingredients...)
		sort.Strings(have)
		sort.Strings(want)
		if len(have) != len(want) {
			return false
		}
		for i := range have {
			if have[i] != want[i] {
				return false
			}
		}
		return true
	}

	h, w := len(c.Pattern), len(c.Pattern[0])
	for oy := 0; oy+h <= 3; oy++ {
		for ox := 0; ox+w <= 3; ox++ {
			if c.matchesAt(grid, ox, oy) {
				return true
			}
		}
	}
	return false
}

func (c *CompressingRecipe) matchesAt(grid [9]string, ox, oy int) bool {
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			want := ""
			if py, px := y-oy, x-ox; py >= 0 && py < len(c.Pattern) && px >= 0 && px < len(c.Pattern[py]) {
				want = c.Key[c.Pattern[py][px]]
			}
			if grid[y*3+x] != want {
				return false
			}
		}
	}
	return true
}

type compressingJSON struct {
	Pattern     []string          `json:"pattern,omitempty"`
	Key         map[string]string `json:"key,omitempty"`
	Ingredients []string          `json:"ingredients,omitempty"`
	Result      ItemCount         `json:"result"`
	TimeTicks   int               `json:"time_ticks"`
}

func decodeCompressing(id string, raw json.RawMessage) (Recipe, error) {
	var j compressingJSON
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, err
	}
	out, err := checkResult(j.Result)
	if err != nil {
		return nil, err
	}
	c := &CompressingRecipe{ID: id, Out: out, Ticks: defaultTicks(j.TimeTicks)}

	switch {
	case len(j.Pattern) > 0 && len(j.Ingredients) > 0:
		return nil, fmt.Errorf("compressing: both pattern and ingredients")
	case len(j.Pattern) > 0:
		if len(j.Pattern) > 3 {
			return nil, fmt.Errorf("compressing: pattern taller than 3")
		}
		width := len(j.Pattern[0])
		c.Key = map[byte]string{}
		for k, v := range j.Key {
			if len(k) != 1 || k == " " {
				return nil, fmt.Errorf("compressing: bad key %q", k)
			}
			c.Key[k[0]] = v
		}
		for _, row := range j.Pattern {
			if len(row) != width || width == 0 || width > 3 {
				return nil, fmt.Errorf("compressing: ragged or oversized pattern")
			}
			for i := 0; i < len(row); i++ {
				if row[i] == ' ' {
					continue
				}
				if _, ok := c.Key[row[i]]; !ok {
					return nil, fmt.Errorf("compressing: pattern symbol %q has no key", row[i])
				}
			}
		}
		c.Pattern = append([]string(nil), j.Pattern...)
	case len(j.Ingredients) > 0:
		if len(j.Ingredients) > 9 {
			return nil, fmt.Errorf("compressing: more than 9 ingredients")
		}
		for _, it := range j.Ingredients {
			if strings.TrimSpace(it) == "" {
				return nil, fmt.Errorf("compressing: empty ingredient")
			}
		}
		c.Ingredients = append([]string(nil), j.Ingredients...)
	default:
		return nil, fmt.Errorf("compressing: needs pattern or ingredients")
	}
	return c, nil
}

func checkResult(r ItemCount) (ItemCount, error) {
	if r.Item == "" {
		return r, fmt.Errorf("missing result item")
	}
	if r.Count <= 0 {
		r.Count = 1
	}
	return r, nil
}

func defaultTicks(n int) int {
	if n <= 0 {
		return 200
	}
	return n
}
