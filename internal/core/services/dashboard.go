package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ewilliams-labs/decades/internal/core/aggregate"
	"github.com/ewilliams-labs/decades/internal/core/derive"
	"github.com/ewilliams-labs/decades/internal/core/domain"
	"github.com/ewilliams-labs/decades/internal/core/partition"
	"github.com/ewilliams-labs/decades/internal/core/ports"
	"github.com/ewilliams-labs/decades/internal/core/presenter"
	"github.com/ewilliams-labs/decades/internal/core/rank"
)

// Options configures a Dashboard.
type Options struct {
	Rank  rank.Options
	Theme presenter.Theme
	// Source names the master table in partition manifests.
	Source string
	// Master, when set, replaces the table source as the input of Partition.
	Master ports.MasterSource
	Logger *zap.Logger
}

// Dashboard runs the load, derive, aggregate, rank and present pipeline for
// every view. One parameterised pipeline serves all decades.
type Dashboard struct {
	source    ports.TableSource
	master    ports.MasterSource
	sink      ports.ShardSink
	narrative ports.NarrativeProvider
	rank      rank.Options
	theme     presenter.Theme
	name      string
	log       *zap.Logger
}

// NewDashboard constructs a Dashboard. sink may be nil when the dashboard is
// only used for reading.
func NewDashboard(source ports.TableSource, sink ports.ShardSink, narrative ports.NarrativeProvider, opts Options) *Dashboard {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Rank == (rank.Options{}) {
		opts.Rank = rank.DefaultOptions()
	}
	if opts.Theme.Name == "" {
		opts.Theme = presenter.DefaultTheme()
	}
	if opts.Source == "" {
		opts.Source = "master"
	}
	master := opts.Master
	if master == nil {
		master = source
	}
	return &Dashboard{
		source:    source,
		master:    master,
		sink:      sink,
		narrative: narrative,
		rank:      opts.Rank,
		theme:     opts.Theme,
		name:      opts.Source,
		log:       log,
	}
}

// ViewRef names one page of the dashboard.
type ViewRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Views lists the landing page, the overview, the glossary and one view per
// stored decade.
func (d *Dashboard) Views(ctx context.Context) ([]ViewRef, error) {
	decades, err := d.source.Decades(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list decades: %w", err)
	}
	views := []ViewRef{
		{ID: presenter.WelcomeID, Title: "Welcome"},
		{ID: presenter.OverviewID, Title: "Overall Information"},
		{ID: presenter.DefinitionsID, Title: "Definitions"},
	}
	for _, dec := range decades {
		views = append(views, ViewRef{ID: dec.String(), Title: dec.String()})
	}
	return views, nil
}

// View dispatches on a view id: "welcome", "overview", "definitions" or a
// decade label.
func (d *Dashboard) View(ctx context.Context, id, artist string) (presenter.Page, error) {
	switch id {
	case presenter.WelcomeID:
		return d.Welcome(ctx)
	case presenter.OverviewID:
		return d.Overview(ctx)
	case presenter.DefinitionsID:
		return d.Definitions(ctx)
	}
	dec, err := domain.ParseDecade(id)
	if err != nil {
		return presenter.Page{}, fmt.Errorf("service: view %q: %w", id, domain.ErrNotFound)
	}
	return d.DecadePage(ctx, dec, artist)
}

// DecadePage builds the view of one decade. An empty artist selects the
// first ranked artist in alphabetical order, matching the selector default.
func (d *Dashboard) DecadePage(ctx context.Context, decade domain.Decade, artist string) (presenter.Page, error) {
	tracks, err := d.decadeTracks(ctx, decade)
	if err != nil {
		return presenter.Page{}, err
	}

	in := presenter.DecadeInput{Decade: decade}
	if in.Means, err = aggregate.Means(tracks, domain.PageFeatures); err != nil {
		return presenter.Page{}, fmt.Errorf("service: feature means: %w", err)
	}
	in.Explicit = aggregate.ValueCounts(tracks, func(t domain.Track) string { return t.ExplicitLabel })
	in.KeyModes = aggregate.ValueCounts(tracks, func(t domain.Track) string { return t.KeyMode })
	in.Ranked = rank.TopArtists(aggregate.Artists(tracks), d.rank)

	selected, err := d.selectArtist(in.Ranked, artist)
	if err != nil {
		return presenter.Page{}, err
	}
	if selected != "" {
		in.Selected = selected
		if in.SelectedMeans, err = aggregate.ArtistMeans(tracks, selected, domain.PageFeatures); err != nil {
			return presenter.Page{}, fmt.Errorf("service: artist means: %w", err)
		}
	}

	if in.Distributions, err = distributions(tracks, domain.PageFeatures); err != nil {
		return presenter.Page{}, err
	}

	n, err := d.narrative.Narrative(ctx, decade.String())
	if err != nil {
		return presenter.Page{}, fmt.Errorf("service: narrative %s: %w", decade, err)
	}

	d.log.Debug("decade page built",
		zap.String("decade", decade.String()),
		zap.Int("tracks", len(tracks)),
		zap.Int("ranked", len(in.Ranked)),
		zap.String("artist", selected))
	return presenter.DecadePage(d.theme, n, in), nil
}

// ArtistFeatures returns the feature-means chart of one ranked artist.
func (d *Dashboard) ArtistFeatures(ctx context.Context, decade domain.Decade, artist string) (presenter.Chart, error) {
	tracks, err := d.decadeTracks(ctx, decade)
	if err != nil {
		return presenter.Chart{}, err
	}
	ranked := rank.TopArtists(aggregate.Artists(tracks), d.rank)
	if artist == "" || !contains(rank.Artists(ranked), artist) {
		return presenter.Chart{}, fmt.Errorf("service: %w: %q in %s", domain.ErrUnknownArtist, artist, decade)
	}
	means, err := aggregate.ArtistMeans(tracks, artist, domain.PageFeatures)
	if err != nil {
		return presenter.Chart{}, fmt.Errorf("service: artist means: %w", err)
	}
	return presenter.FeatureMeansChart(d.theme, presenter.ChartArtistFeatures, "Features for artist "+artist, means), nil
}

// Overview builds the whole-dataset view from the master table.
func (d *Dashboard) Overview(ctx context.Context) (presenter.Page, error) {
	master, err := d.source.LoadMaster(ctx)
	if err != nil {
		return presenter.Page{}, fmt.Errorf("service: failed to load master: %w", err)
	}
	tracks, err := derive.Tracks(master)
	if err != nil {
		return presenter.Page{}, fmt.Errorf("service: master: %w", err)
	}

	in := presenter.OverviewInput{Features: domain.OverviewFeatures}
	seen := make(map[domain.Decade]bool)
	for _, t := range tracks {
		if !seen[t.Decade] {
			seen[t.Decade] = true
			in.Decades = append(in.Decades, t.Decade)
		}
	}
	domain.SortDecades(in.Decades)

	in.PerDecade = aggregate.ValueCounts(tracks, func(t domain.Track) string { return t.Decade.String() })
	if in.DecadeMeans, err = aggregate.ByDecade(tracks, domain.OverviewFeatures); err != nil {
		return presenter.Page{}, fmt.Errorf("service: decade means: %w", err)
	}
	in.Explicit = aggregate.ExplicitByDecade(tracks, in.Decades)
	in.KeyModes = aggregate.KeyModePivot(tracks, in.Decades)
	if in.Distributions, err = distributions(tracks, domain.OverviewFeatures); err != nil {
		return presenter.Page{}, err
	}

	n, err := d.narrative.Narrative(ctx, presenter.OverviewID)
	if err != nil {
		return presenter.Page{}, fmt.Errorf("service: narrative overview: %w", err)
	}
	d.log.Debug("overview built", zap.Int("tracks", len(tracks)), zap.Int("decades", len(in.Decades)))
	return presenter.Overview(d.theme, n, in), nil
}

// Welcome builds the landing view. It needs no data.
func (d *Dashboard) Welcome(ctx context.Context) (presenter.Page, error) {
	n, err := d.narrative.Narrative(ctx, presenter.WelcomeID)
	if err != nil {
		return presenter.Page{}, fmt.Errorf("service: narrative welcome: %w", err)
	}
	return presenter.Welcome(n), nil
}

// Definitions builds the glossary view.
func (d *Dashboard) Definitions(ctx context.Context) (presenter.Page, error) {
	n, err := d.narrative.Narrative(ctx, presenter.DefinitionsID)
	if err != nil {
		return presenter.Page{}, fmt.Errorf("service: narrative definitions: %w", err)
	}
	g, err := d.narrative.Glossary(ctx)
	if err != nil {
		return presenter.Page{}, fmt.Errorf("service: glossary: %w", err)
	}
	return presenter.Definitions(n, g), nil
}

// masterImporter is implemented by sinks that also keep the master table.
type masterImporter interface {
	ImportMaster(ctx context.Context, t domain.Table) error
}

// Partition splits the master table into decade shards, checks the result
// and hands it to the sink.
func (d *Dashboard) Partition(ctx context.Context) (domain.Manifest, error) {
	if d.sink == nil {
		return domain.Manifest{}, fmt.Errorf("service: no shard sink configured")
	}
	master, err := d.master.LoadMaster(ctx)
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("service: failed to load master: %w", err)
	}
	shards, err := partition.Partition(master)
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("service: %w", err)
	}
	if err := partition.Verify(master, shards); err != nil {
		return domain.Manifest{}, fmt.Errorf("service: %w", err)
	}

	if mi, ok := d.sink.(masterImporter); ok {
		if err := mi.ImportMaster(ctx, master); err != nil {
			return domain.Manifest{}, fmt.Errorf("service: failed to import master: %w", err)
		}
	}
	m, err := d.sink.WriteShards(ctx, d.name, shards)
	if err != nil {
		return domain.Manifest{}, fmt.Errorf("service: failed to write shards: %w", err)
	}
	if m.TotalRows() != master.Len() {
		return domain.Manifest{}, fmt.Errorf("service: manifest holds %d rows, master has %d", m.TotalRows(), master.Len())
	}
	d.log.Info("partitioned", zap.String("run_id", m.RunID), zap.Int("shards", len(m.Shards)), zap.Int("rows", master.Len()))
	return m, nil
}

// decadeTracks loads and derives one shard. Rows whose year falls outside
// the shard's decade are rejected.
func (d *Dashboard) decadeTracks(ctx context.Context, decade domain.Decade) ([]domain.Track, error) {
	table, err := d.source.LoadShard(ctx, decade)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load shard %s: %w", decade, err)
	}
	tracks, err := derive.Tracks(table)
	if err != nil {
		return nil, fmt.Errorf("service: shard %s: %w", decade, err)
	}
	for i, t := range tracks {
		if t.Decade != decade {
			return nil, fmt.Errorf("service: shard %s: %w", decade, domain.ValueError{
				Column: derive.ColDecade,
				Row:    i + 1,
				Value:  t.Decade.String(),
				Reason: "row belongs to another decade",
			})
		}
	}
	return tracks, nil
}

func (d *Dashboard) selectArtist(ranked []rank.Ranked, artist string) (string, error) {
	names := rank.Artists(ranked)
	if artist == "" {
		if len(names) == 0 {
			return "", nil
		}
		return names[0], nil
	}
	if !contains(names, artist) {
		return "", fmt.Errorf("service: %w: %q", domain.ErrUnknownArtist, artist)
	}
	return artist, nil
}

func distributions(tracks []domain.Track, features []domain.Feature) ([]presenter.DistributionInput, error) {
	out := make([]presenter.DistributionInput, 0, len(features))
	for _, f := range features {
		values, err := aggregate.Values(tracks, f)
		if err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
		s, err := aggregate.Summarize(tracks, f)
		if err != nil {
			return nil, fmt.Errorf("service: %w", err)
		}
		out = append(out, presenter.DistributionInput{Values: values, Summary: s})
	}
	return out, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
