package core

// Params holds the tunable knobs shared by the experiments. An experiment
// ignores the fields it has no use for; zero values mean "use the
// experiment's default".
type Params struct {
	Generations    int     `koanf:"generations"`
	Population     int     `koanf:"population"`
	CrossoverRate  float64 `koanf:"crossover_rate"`
	MutationRate   float64 `koanf:"mutation_rate"`
	Sigma          float64 `koanf:"sigma"`
	TournamentSize int     `koanf:"tournament_size"`
}

// Merge returns p with any non-zero field of override applied on top.
func (p Params) Merge(override Params) Params {
	if override.Generations > 0 {
		p.Generations = override.Generations
	}
	if override.Population > 0 {
		p.Population = override.Population
	}
	if override.CrossoverRate > 0 {
		p.CrossoverRate = override.CrossoverRate
	}
	if override.MutationRate > 0 {
		p.MutationRate = override.MutationRate
	}
	if override.Sigma > 0 {
		p.Sigma = override.Sigma
	}
	if override.TournamentSize > 0 {
		p.TournamentSize = override.TournamentSize
	}
	return p
}
