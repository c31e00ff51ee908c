package flatpak

import (
	"context"
	"fmt"
	"strings"

	"shelf/pkg/provider"
)

// Remote is one configured flatpak remote.
type Remote struct {
	Name    string
	Title   string
	URL     string
	Options []string
}

// Remotes returns the configured remotes, cached until the next invalidation.
func (b *Backend) Remotes(ctx context.Context) (map[string]Remote, error) {
	b.remotesMu.Lock()
	cached := b.remotes
	b.remotesMu.Unlock()
	if cached != nil {
		return cached, nil
	}

	args := append([]string{"remotes", "--columns=name,title,url,options"}, b.scope()...)
	output, err := b.run.Output(ctx, binary, args...)
	if err != nil {
		return nil, fmt.Errorf("flatpak remotes: %w", err)
	}

	remotes := make(map[string]Remote)
	for _, fields := range rows(output, 1) {
		for len(fields) < 4 {
			fields = append(fields, "")
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			continue
		}
		r := Remote{
			Name:  name,
			Title: strings.TrimSpace(fields[1]),
			URL:   strings.TrimSpace(fields[2]),
		}
		for _, opt := range strings.Split(fields[3], ",") {
			if opt = strings.TrimSpace(opt); opt != "" {
				r.Options = append(r.Options, opt)
			}
		}
		remotes[name] = r
	}

	b.remotesMu.Lock()
	b.remotes = remotes
	b.remotesMu.Unlock()
	return remotes, nil
}

// SourceLabel returns the remote's title when known, otherwise its name.
func (b *Backend) SourceLabel(remote string) string {
	if remote == provider.LocalRemote {
		return "Local file"
	}
	remotes, err := b.Remotes(context.Background())
	if err != nil {
		b.log.Debug().Err(err).Msg("remotes unavailable")
		return remote
	}
	if r, ok := remotes[remote]; ok && r.Title != "" {
		return r.Title
	}
	return remote
}
