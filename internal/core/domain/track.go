package domain

import "fmt"

// Feature names a numeric column of a track.
type Feature string

const (
	Acousticness     Feature = "acousticness"
	Danceability     Feature = "danceability"
	DurationMin      Feature = "duration_min"
	Energy           Feature = "energy"
	Instrumentalness Feature = "instrumentalness"
	Liveness         Feature = "liveness"
	Loudness         Feature = "loudness"
	Popularity       Feature = "popularity"
	Speechiness      Feature = "speechiness"
	Tempo            Feature = "tempo"
	Valence          Feature = "valence"
)

// AudioFeatures are the platform-computed descriptors of a track.
type AudioFeatures struct {
	Acousticness     float64 `json:"acousticness"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Loudness         float64 `json:"loudness"`
	Speechiness      float64 `json:"speechiness"`
	Tempo            float64 `json:"tempo"`
	Valence          float64 `json:"valence"`
}

// Track represents one row of the dataset after derivation.
type Track struct {
	Name          string        `json:"name"`
	FirstArtist   string        `json:"first_artist"`
	Year          int           `json:"year"`
	Decade        Decade        `json:"decade"`
	Popularity    int           `json:"popularity"`
	Explicit      bool          `json:"explicit"`
	ExplicitLabel string        `json:"explicit_label"`
	KeyMode       string        `json:"key_mode"`
	DurationMs    float64       `json:"duration_ms"`
	DurationMin   float64       `json:"duration_min"`
	ArtistTrack   string        `json:"artist_track"`
	Features      AudioFeatures `json:"features"`
}

// PageFeatures are the columns summarised on every decade view.
var PageFeatures = []Feature{
	Valence,
	Acousticness,
	Danceability,
	DurationMin,
	Energy,
	Instrumentalness,
	Liveness,
	Loudness,
	Speechiness,
	Tempo,
}

// OverviewFeatures adds popularity to PageFeatures for the decade comparison.
var OverviewFeatures = []Feature{
	Valence,
	Acousticness,
	Danceability,
	DurationMin,
	Energy,
	Instrumentalness,
	Liveness,
	Loudness,
	Popularity,
	Speechiness,
	Tempo,
}

// AudioFeatureColumns lists the audio feature columns every input must carry.
var AudioFeatureColumns = []Feature{
	Acousticness,
	Danceability,
	Energy,
	Instrumentalness,
	Liveness,
	Loudness,
	Speechiness,
	Tempo,
	Valence,
}

// Value returns the numeric value of f for the track.
func (t Track) Value(f Feature) (float64, error) {
	switch f {
	case Acousticness:
		return t.Features.Acousticness, nil
	case Danceability:
		return t.Features.Danceability, nil
	case DurationMin:
		return t.DurationMin, nil
	case Energy:
		return t.Features.Energy, nil
	case Instrumentalness:
		return t.Features.Instrumentalness, nil
	case Liveness:
		return t.Features.Liveness, nil
	case Loudness:
		return t.Features.Loudness, nil
	case Popularity:
		return float64(t.Popularity), nil
	case Speechiness:
		return t.Features.Speechiness, nil
	case Tempo:
		return t.Features.Tempo, nil
	case Valence:
		return t.Features.Valence, nil
	default:
		return 0, fmt.Errorf("domain: %w: %q", ErrUnknownFeature, string(f))
	}
}

// Set stores v as the value of an audio feature column.
func (a *AudioFeatures) Set(f Feature, v float64) error {
	switch f {
	case Acousticness:
		a.Acousticness = v
	case Danceability:
		a.Danceability = v
	case Energy:
		a.Energy = v
	case Instrumentalness:
		a.Instrumentalness = v
	case Liveness:
		a.Liveness = v
	case Loudness:
		a.Loudness = v
	case Speechiness:
		a.Speechiness = v
	case Tempo:
		a.Tempo = v
	case Valence:
		a.Valence = v
	default:
		return fmt.Errorf("domain: %w: %q", ErrUnknownFeature, string(f))
	}
	return nil
}
