package model

// ContractKey selects which contract's catalog endpoint to query.
type ContractKey string

const (
	ContractA ContractKey = "a"
	ContractB ContractKey = "b"
)

// ContractInfo carries the well and equipment parameters entered for one
// validation run. It is attached verbatim to every detection created during
// the run and never consulted by the matching engine itself.
type ContractInfo struct {
	HoleSection    string `json:"hole_section,omitempty" yaml:"hole_section"`
	BitDiameter    string `json:"bit_diameter,omitempty" yaml:"bit_diameter"`
	BottomholeTemp string `json:"bottomhole_temp,omitempty" yaml:"bottomhole_temp"`

	MudType      string `json:"mud_type,omitempty" yaml:"mud_type"`
	MudDensity   string `json:"mud_density,omitempty" yaml:"mud_density"`
	MudAdditives string `json:"mud_additives,omitempty" yaml:"mud_additives"`

	TailSlurryDensity string `json:"tail_slurry_density,omitempty" yaml:"tail_slurry_density"`
	LeadSlurryDensity string `json:"lead_slurry_density,omitempty" yaml:"lead_slurry_density"`
	CementAdditives   string `json:"cement_additives,omitempty" yaml:"cement_additives"`

	CasingDiameter string `json:"casing_diameter,omitempty" yaml:"casing_diameter"`

	ScrewConveyor      string `json:"screw_conveyor,omitempty" yaml:"screw_conveyor"`
	Shaker             string `json:"shaker,omitempty" yaml:"shaker"`
	MudCleaner         string `json:"mud_cleaner,omitempty" yaml:"mud_cleaner"`
	DecanterCentrifuge string `json:"decanter_centrifuge,omitempty" yaml:"decanter_centrifuge"`
	CuttingsHaulOff    string `json:"cuttings_haul_off,omitempty" yaml:"cuttings_haul_off"`
}
