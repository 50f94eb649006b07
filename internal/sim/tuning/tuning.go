package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	TickRateHz          int `yaml:"tick_rate_hz" json:"tick_rate_hz"`
	SnapshotEveryTicks  int `yaml:"snapshot_every_ticks" json:"snapshot_every_ticks"`
	PanelFullEveryTicks int `yaml:"panel_full_every_ticks" json:"panel_full_every_ticks"`

	FuelLoader FuelLoader `yaml:"fuel_loader" json:"fuel_loader"`
	Rocket     Rocket     `yaml:"rocket" json:"rocket"`
}

type FuelLoader struct {
	EnergyCapacity  int64  `yaml:"energy_capacity" json:"energy_capacity"`
	EnergyPerTick   int64  `yaml:"energy_per_tick" json:"energy_per_tick"`
	ChargeRate      int64  `yaml:"charge_rate" json:"charge_rate"`
	TankCapacity    int64  `yaml:"tank_capacity" json:"tank_capacity"`
	IntakePerTick   int64  `yaml:"intake_per_tick" json:"intake_per_tick"`
	DeliveryPerTick int64  `yaml:"delivery_per_tick" json:"delivery_per_tick"`
	FuelTag         string `yaml:"fuel_tag" json:"fuel_tag"`
}

type Rocket struct {
	TankCapacity int64 `yaml:"tank_capacity" json:"tank_capacity"`
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:          20,
		SnapshotEveryTicks:  6000,
		PanelFullEveryTicks: 100,
		FuelLoader: FuelLoader{
			EnergyCapacity:  30000,
			EnergyPerTick:   30,
			TankCapacity:    81000,
			IntakePerTick:   81000 / 20,
			DeliveryPerTick: 81000 / 50,
			FuelTag:         "fuel",
		},
		Rocket: Rocket{TankCapacity: 4 * 81000},
	}
}

// Load reads path over the defaults; keys missing from the file keep their
// default value.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	switch {
	case t.TickRateHz <= 0:
		return fmt.Errorf("tick_rate_hz must be positive")
	case t.FuelLoader.TankCapacity <= 0:
		return fmt.Errorf("fuel_loader.tank_capacity must be positive")
	case t.FuelLoader.IntakePerTick <= 0:
		return fmt.Errorf("fuel_loader.intake_per_tick must be positive")
	case t.FuelLoader.DeliveryPerTick <= 0:
		return fmt.Errorf("fuel_loader.delivery_per_tick must be positive")
	case t.FuelLoader.EnergyPerTick <= 0:
		return fmt.Errorf("fuel_loader.energy_per_tick must be positive")
	case t.FuelLoader.EnergyCapacity < t.FuelLoader.EnergyPerTick:
		return fmt.Errorf("fuel_loader.energy_capacity below energy_per_tick")
	case t.FuelLoader.FuelTag == "":
		return fmt.Errorf("fuel_loader.fuel_tag is empty")
	case t.Rocket.TankCapacity <= 0:
		return fmt.Errorf("rocket.tank_capacity must be positive")
	}
	return nil
}
