package devbackend

// Movie is the catalog row served by the collection endpoints.
type Movie struct {
	TMDBID      int      `json:"tmdb_id"`
	Title       string   `json:"title"`
	PosterURL   *string  `json:"poster_url"`
	Overview    string   `json:"overview"`
	Genres      string   `json:"genres"`
	ReleaseDate *string  `json:"release_date"`
	VoteAverage *float64 `json:"vote_average"`
	VoteCount   *int     `json:"vote_count"`
	Popularity  float64  `json:"-"`
}

func ptr[T any](v T) *T { return &v }

func movie(id int, title, genres, released string, avg float64, votes int, popularity float64) Movie {
	return Movie{
		TMDBID:      id,
		Title:       title,
		PosterURL:   ptr("https://image.tmdb.org/t/p/w500/" + title + ".jpg"),
		Overview:    title + " overview",
		Genres:      genres,
		ReleaseDate: ptr(released),
		VoteAverage: ptr(avg),
		VoteCount:   ptr(votes),
		Popularity:  popularity,
	}
}

// DefaultCatalog is a small fixed catalog for local development.
func DefaultCatalog() []Movie {
	return []Movie{
		movie(603, "The Matrix", "Action, Science Fiction", "1999-03-30", 8.2, 24000, 95),
		movie(13, "Forrest Gump", "Comedy, Drama, Romance", "1994-06-23", 8.5, 26000, 90),
		movie(680, "Pulp Fiction", "Thriller, Crime", "1994-09-10", 8.5, 27000, 88),
		movie(155, "The Dark Knight", "Drama, Action, Crime, Thriller", "2008-07-16", 8.5, 31000, 97),
		movie(27205, "Inception", "Action, Science Fiction, Adventure", "2010-07-15", 8.4, 35000, 96),
		movie(157336, "Interstellar", "Adventure, Drama, Science Fiction", "2014-11-05", 8.4, 33000, 94),
		movie(550, "Fight Club", "Drama, Thriller", "1999-10-15", 8.4, 28000, 85),
		movie(278, "The Shawshank Redemption", "Drama, Crime", "1994-09-23", 8.7, 25000, 92),
		movie(238, "The Godfather", "Drama, Crime", "1972-03-14", 8.7, 19000, 87),
		movie(122, "The Lord of the Rings: The Return of the King", "Adventure, Fantasy, Action", "2003-12-01", 8.5, 23000, 89),
		movie(497, "The Green Mile", "Fantasy, Drama, Crime", "1999-12-10", 8.5, 16000, 80),
		movie(693134, "Dune: Part Two", "Science Fiction, Adventure", "2024-02-27", 8.2, 5000, 99),
		movie(872585, "Oppenheimer", "Drama, History", "2023-07-19", 8.1, 8000, 93),
		movie(346698, "Barbie", "Comedy, Adventure", "2023-07-19", 7.1, 9000, 84),
		movie(569094, "Spider-Man: Across the Spider-Verse", "Animation, Action, Adventure", "2023-05-31", 8.4, 6000, 86),
		movie(940721, "Godzilla Minus One", "Science Fiction, Horror, Action", "2023-11-03", 7.7, 1500, 70),
	}
}
