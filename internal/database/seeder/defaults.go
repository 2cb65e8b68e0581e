package seeder

func Defaults() []Seeder {
	return []Seeder{
		OperatorsSeeder{},
		JobsSeeder{},
	}
}
