package world

import (
	"chatventure.world/internal/pkg/idgen"
	"chatventure.world/internal/sim/catalogs"
)

// Ability is owned exclusively by one entity. Passive abilities carry no
// combat fields; check Active before touching Action/Target/Effects.
type Ability struct {
	ID          string
	BlueprintID string
	SimpleName  string
	CurrentName string
	Tier        int
	Active      bool

	Type   string
	Action string
	Intent string
	Flavor string
	Target string
	AOE    string

	Effects *catalogs.AbilityEffects

	Exp      int
	ExpLevel int
	Use      int
	UseLevel int
	Mods     []string
}

var abilityIDs = idgen.NewPrefixed("abil")

// NewAbility instances an ability from a blueprint with a fresh unique id.
func NewAbility(bp catalogs.AbilityBlueprint) *Ability {
	a := &Ability{
		ID:          abilityIDs.Generate(),
		BlueprintID: bp.ID,
		SimpleName:  bp.SimpleName,
		CurrentName: bp.SimpleName,
		Tier:        bp.Tier,
		Active:      bp.Active,
		ExpLevel:    1,
		UseLevel:    1,
	}
	if bp.Active {
		a.Type = bp.Type
		a.Action = bp.Action
		a.Intent = bp.Intent
		a.Flavor = bp.Flavor
		a.Target = bp.Target
		a.AOE = bp.AOE
		if bp.Effects != nil {
			effects := *bp.Effects
			if bp.Effects.Damage != nil {
				dmg := *bp.Effects.Damage
				effects.Damage = &dmg
			}
			a.Effects = &effects
		}
	}
	return a
}

// ApplyMod prefixes the display name with a modifier. The simple name is
// kept so mods stack without compounding.
func (a *Ability) ApplyMod(prefix string) {
	a.Mods = append(a.Mods, prefix)
	name := a.SimpleName
	for i := len(a.Mods) - 1; i >= 0; i-- {
		name = a.Mods[i] + " " + name
	}
	a.CurrentName = name
}
