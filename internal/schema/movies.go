package schema

type columnDecl struct {
	name string
	typ  Type
}

// mainColumns is the declared order of the main table. The order is the
// order of every main row.
var mainColumns = []columnDecl{
	{"id", TypeInteger},
	{"adult", TypeBoolean},
	{"title", TypeText},
	{"original_title", TypeText},
	{"video", TypeBoolean},
	{"budget", TypeInteger},
	{"revenue", TypeInteger},
	{"runtime", TypeInteger},
	{"status", TypeText},
	{"imdb_id", TypeText},
	{"tagline", TypeText},
	{"homepage", TypeText},
	{"overview", TypeText},
	{"popularity", TypeReal},
	{"vote_count", TypeInteger},
	{"vote_average", TypeReal},
	{"release_date", TypeText},
	{"original_language", TypeText},
	{"poster_path", TypeText},
	{"backdrop_path", TypeText},

	{"collection_id", TypeInteger},
	{"collection_name", TypeText},
	{"collection_poster_path", TypeText},
	{"collection_backdrop_path", TypeText},

	{"external_imdb_id", TypeText},
	{"external_twitter_id", TypeText},
	{"external_facebook_id", TypeText},
	{"external_wikidata_id", TypeText},
	{"external_instagram_id", TypeText},
}

// Child table names.
const (
	TableGenres              = "movie_genres"
	TableSpokenLanguages     = "movie_spoken_languages"
	TableOriginCountries     = "movie_origin_countries"
	TableProductionCompanies = "movie_production_companies"
	TableProductionCountries = "movie_production_countries"
	TableVideos              = "movie_videos"
)

// childTables returns a fresh copy of the child declarations so callers can
// never mutate a shared slice.
func childTables() []ChildTable {
	return []ChildTable{
		{
			Name:   TableGenres,
			Source: []string{"genres"},
			Columns: []ChildColumn{
				{Name: "genre_id", Type: TypeInteger, Field: "id"},
				{Name: "genre_name", Type: TypeText, Field: "name"},
			},
		},
		{
			Name:   TableSpokenLanguages,
			Source: []string{"spoken_languages"},
			Columns: []ChildColumn{
				{Name: "iso_639_1", Type: TypeText, Field: "iso_639_1"},
				{Name: "name", Type: TypeText, Field: "name"},
				{Name: "english_name", Type: TypeText, Field: "english_name"},
			},
		},
		{
			Name:   TableOriginCountries,
			Source: []string{"origin_country"},
			Scalar: true,
			Columns: []ChildColumn{
				{Name: "iso_3166_1", Type: TypeText},
			},
		},
		{
			Name:   TableProductionCompanies,
			Source: []string{"production_companies"},
			Columns: []ChildColumn{
				{Name: "company_id", Type: TypeInteger, Field: "id"},
				{Name: "name", Type: TypeText, Field: "name"},
				{Name: "origin_country", Type: TypeText, Field: "origin_country"},
				{Name: "logo_path", Type: TypeText, Field: "logo_path"},
			},
		},
		{
			Name:   TableProductionCountries,
			Source: []string{"production_countries"},
			Columns: []ChildColumn{
				{Name: "iso_3166_1", Type: TypeText, Field: "iso_3166_1"},
				{Name: "name", Type: TypeText, Field: "name"},
			},
		},
		{
			Name:   TableVideos,
			Source: []string{"videos", "results"},
			Columns: []ChildColumn{
				{Name: "video_id", Type: TypeText, Field: "id"},
				{Name: "key", Type: TypeText, Field: "key"},
				{Name: "name", Type: TypeText, Field: "name"},
				{Name: "site", Type: TypeText, Field: "site"},
				{Name: "size", Type: TypeInteger, Field: "size"},
				{Name: "type", Type: TypeText, Field: "type"},
				{Name: "official", Type: TypeBoolean, Field: "official"},
				{Name: "published_at", Type: TypeText, Field: "published_at"},
			},
		},
	}
}
