package domain

// Genre is embedded in every movie that belongs to it.
type Genre struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// Director is embedded in every movie they directed.
type Director struct {
	Name      string `yaml:"name"`
	Bio       string `yaml:"bio"`
	BirthYear int    `yaml:"birthYear"`
	DeathYear *int   `yaml:"deathYear"`
}

// Movie is a catalog entry.
type Movie struct {
	ID          string   `yaml:"id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Genre       Genre    `yaml:"genre"`
	Director    Director `yaml:"director"`
	ActorIDs    []string `yaml:"actors"`
	ImagePath   string   `yaml:"imagePath"`
	Featured    bool     `yaml:"featured"`
}

// Actor is referenced from movies by ID.
type Actor struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	BirthYear int    `yaml:"birthYear"`
}

// Catalog is the full set of catalog records, used for seeding.
type Catalog struct {
	Actors []Actor `yaml:"actors"`
	Movies []Movie `yaml:"movies"`
}
