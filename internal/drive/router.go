// Package drive mirrors intake assets into an external document store.
// Routing is best effort: a failure never blocks the portal operation
// that triggered it.
package drive

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
)

// Folder identifies a provisioned per-client folder.
type Folder struct {
	ID  string
	URL string
}

// File identifies a routed copy of an uploaded asset.
type File struct {
	ID  string
	URL string
}

// FileRouter provisions client folders and routes uploaded assets into
// category subfolders.
type FileRouter interface {
	EnsureClientFolder(ctx context.Context, tenant *model.Tenant, client *model.Client) (*Folder, error)
	RouteAsset(ctx context.Context, folderID string, asset *model.IntakeAsset) (*File, error)
}

// StubRouter fabricates stable-looking identifiers without calling any
// external service. Used until a real provider is wired in deployment.
type StubRouter struct {
	logger zerolog.Logger
}

func NewStubRouter(logger zerolog.Logger) *StubRouter {
	return &StubRouter{logger: logger.With().Str("component", "drive").Logger()}
}

func (r *StubRouter) EnsureClientFolder(ctx context.Context, tenant *model.Tenant, client *model.Client) (*Folder, error) {
	id := "folder_" + randomSuffix()
	folder := &Folder{
		ID:  id,
		URL: fmt.Sprintf("https://drive.local/%s/%s", tenant.Slug, id),
	}
	r.logger.Info().
		Str("tenant_id", tenant.ID).
		Str("client_id", client.ID).
		Str("folder_id", folder.ID).
		Msg("client folder provisioned")
	return folder, nil
}

func (r *StubRouter) RouteAsset(ctx context.Context, folderID string, asset *model.IntakeAsset) (*File, error) {
	id := "file_" + randomSuffix()
	file := &File{
		ID:  id,
		URL: fmt.Sprintf("https://drive.local/%s/%s/%s", folderID, asset.Category, id),
	}
	r.logger.Info().
		Str("asset_id", asset.ID).
		Str("folder_id", folderID).
		Str("category", string(asset.Category)).
		Int("revision", asset.Revision).
		Msg("asset routed")
	return file, nil
}

func randomSuffix() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
