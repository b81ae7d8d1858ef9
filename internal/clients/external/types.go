package external

// SpellData is the spell content casting needs
type SpellData struct {
	Key           string
	Name          string
	Level         int
	School        string
	CastingTime   string
	Range         string
	Duration      string
	Concentration bool
	Ritual        bool
	// SaveAbility is the saving throw ability abbreviation, e.g. "WIS"
	SaveAbility string
	SaveEffect  string
	Classes     []string
}

// ListSpellsInput filters ListSpells
type ListSpellsInput struct {
	Level     *int
	ClassName string
}
