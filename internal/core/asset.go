package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"cs-go/internal/git"
	"cs-go/internal/model"
	"cs-go/internal/schema"
)

// supportedExtensions is the set of payload types the store accepts,
// keyed by the extension mimetype detection reports.
var supportedExtensions = map[string]bool{
	"avif": true, "gif": true, "jpg": true, "jpeg": true, "png": true,
	"svg": true, "webp": true, "pdf": true, "mp3": true, "ogg": true,
	"wav": true, "mp4": true, "webm": true, "zip": true, "json": true,
	"txt": true, "md": true, "csv": true,
}

// sniffPayload detects the payload's mime type and extension from its
// content, not its file name.
func sniffPayload(sourcePath string) (ext, mime string, err error) {
	mt, err := mimetype.DetectFile(sourcePath)
	if err != nil {
		return "", "", fmt.Errorf("detecting file type: %w", err)
	}
	ext = strings.TrimPrefix(mt.Extension(), ".")
	if !supportedExtensions[ext] {
		return "", "", fmt.Errorf("%q (%s): %w", mt.String(), sourcePath, ErrUnsupportedFileType)
	}
	return ext, mt.String(), nil
}

// CreateAssetInput is the creation shape for an Asset.
type CreateAssetInput struct {
	Name        string
	Description string
	// SourcePath is the file whose content becomes the payload.
	SourcePath string
}

// CreateAsset copies the payload to its content path, writes the metadata
// file, and commits both. The payload type is sniffed from content and must
// be supported. On any failure after the id is allocated, both artifacts
// are removed before the error is returned.
func (s *Service) CreateAsset(ctx context.Context, projectID string, in CreateAssetInput) (*model.Asset, error) {
	if _, err := s.readProjectFile(projectID); err != nil {
		return nil, err
	}
	ext, mime, err := sniffPayload(in.SourcePath)
	if err != nil {
		return nil, err
	}

	asset := &model.Asset{
		ObjectRecord: model.ObjectRecord{
			ID:         s.idgen.New(),
			ObjectType: model.ObjectTypeAsset,
			Created:    s.clock.Now().UTC(),
		},
		Name:        in.Name,
		Description: in.Description,
		Extension:   ext,
		MimeType:    mime,
	}

	if err := s.createAssetFiles(ctx, projectID, asset, in.SourcePath); err != nil {
		// Compensate: remove both artifacts so no partial object lingers.
		os.Remove(s.layout.AssetContent(projectID, asset.ID, ext))
		os.Remove(s.layout.AssetFile(projectID, asset.ID))
		return nil, err
	}

	s.logger.Info("asset created", "project", projectID, "id", asset.ID, "mime", mime)
	asset.AbsolutePath = s.layout.AssetContent(projectID, asset.ID, ext)
	return asset, nil
}

func (s *Service) createAssetFiles(ctx context.Context, projectID string, asset *model.Asset, sourcePath string) error {
	// Payload first: metadata records the copied size.
	contentPath := s.layout.AssetContent(projectID, asset.ID, asset.Extension)
	size, err := copyFile(sourcePath, contentPath)
	if err != nil {
		return err
	}
	asset.Size = size

	metaPath := s.layout.AssetFile(projectID, asset.ID)
	if err := s.codec.Create(asset, metaPath, schema.Asset()); err != nil {
		return err
	}

	relMeta, err := s.layout.Rel(projectID, metaPath)
	if err != nil {
		return err
	}
	relContent, err := s.layout.Rel(projectID, contentPath)
	if err != nil {
		return err
	}
	return s.gateway.CommitFiles(ctx, s.layout.ProjectDir(projectID), "create asset", relMeta, relContent)
}

// ReadAsset returns the asset metadata by id, with its commit history and
// the payload's absolute path.
func (s *Service) ReadAsset(ctx context.Context, projectID, id string) (*model.Asset, error) {
	asset, err := s.readAssetFile(projectID, id)
	if err != nil {
		return nil, err
	}
	rel, err := s.layout.Rel(projectID, s.layout.AssetFile(projectID, id))
	if err != nil {
		return nil, err
	}
	asset.History, err = s.gateway.Log(ctx, s.layout.ProjectDir(projectID), git.LogOptions{File: rel})
	if err != nil {
		return nil, err
	}
	asset.AbsolutePath = s.layout.AssetContent(projectID, id, asset.Extension)
	return asset, nil
}

// ReadAssetAt reads the asset as of a historical commit and materializes
// the historical payload to a temporary path for the caller.
func (s *Service) ReadAssetAt(ctx context.Context, projectID, id, commitHash string) (*model.Asset, error) {
	dir := s.layout.ProjectDir(projectID)
	relMeta, err := s.layout.Rel(projectID, s.layout.AssetFile(projectID, id))
	if err != nil {
		return nil, err
	}
	raw, err := s.gateway.ShowFileAtCommit(ctx, dir, relMeta, commitHash)
	if err != nil {
		return nil, err
	}
	var asset model.Asset
	if err := json.Unmarshal(raw, &asset); err != nil {
		return nil, fmt.Errorf("decoding historical asset: %w", err)
	}
	if err := schema.Asset().Validate(&asset); err != nil {
		return nil, err
	}

	relContent, err := s.layout.Rel(projectID, s.layout.AssetContent(projectID, id, asset.Extension))
	if err != nil {
		return nil, err
	}
	payload, err := s.gateway.ShowFileAtCommit(ctx, dir, relContent, commitHash)
	if err != nil {
		return nil, err
	}
	tmp := filepath.Join(os.TempDir(), fmt.Sprintf("cs-asset-%s-%s.%s", id, commitHash, asset.Extension))
	if err := os.WriteFile(tmp, payload, 0644); err != nil {
		return nil, fmt.Errorf("materializing historical payload: %w", err)
	}
	asset.AbsolutePath = tmp
	return &asset, nil
}

func (s *Service) readAssetFile(projectID, id string) (*model.Asset, error) {
	var asset model.Asset
	if err := s.codec.Read(s.layout.AssetFile(projectID, id), schema.Asset(), &asset); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("asset %s: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &asset, nil
}

// UpdateAssetInput carries the mutable asset fields. A non-empty
// SourcePath replaces the binary payload.
type UpdateAssetInput struct {
	Name        *string
	Description *string
	SourcePath  string
}

// UpdateAsset applies a read-merge-write update. When a new payload is
// supplied, the old artifact is removed first, since the extension may
// change, and the removal is committed together with the replacement.
func (s *Service) UpdateAsset(ctx context.Context, projectID, id string, in UpdateAssetInput) (*model.Asset, error) {
	asset, err := s.readAssetFile(projectID, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		asset.Name = *in.Name
	}
	if in.Description != nil {
		asset.Description = *in.Description
	}

	files := []string{}
	if in.SourcePath != "" {
		ext, mime, err := sniffPayload(in.SourcePath)
		if err != nil {
			return nil, err
		}
		oldContent := s.layout.AssetContent(projectID, id, asset.Extension)
		if err := os.Remove(oldContent); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("removing old payload: %w", err)
		}
		relOld, err := s.layout.Rel(projectID, oldContent)
		if err != nil {
			return nil, err
		}
		files = append(files, relOld)

		asset.Extension = ext
		asset.MimeType = mime
		newContent := s.layout.AssetContent(projectID, id, ext)
		if asset.Size, err = copyFile(in.SourcePath, newContent); err != nil {
			return nil, err
		}
		relNew, err := s.layout.Rel(projectID, newContent)
		if err != nil {
			return nil, err
		}
		files = append(files, relNew)
	}

	now := s.clock.Now().UTC()
	asset.Updated = &now

	metaPath := s.layout.AssetFile(projectID, id)
	if err := s.codec.Update(asset, metaPath, schema.Asset()); err != nil {
		return nil, err
	}
	relMeta, err := s.layout.Rel(projectID, metaPath)
	if err != nil {
		return nil, err
	}
	files = append(files, relMeta)
	if err := s.gateway.CommitFiles(ctx, s.layout.ProjectDir(projectID), "update asset", files...); err != nil {
		return nil, err
	}
	asset.AbsolutePath = s.layout.AssetContent(projectID, id, asset.Extension)
	return asset, nil
}

// DeleteAsset removes the metadata file and the payload, then commits the
// removal.
func (s *Service) DeleteAsset(ctx context.Context, projectID, id string) error {
	asset, err := s.readAssetFile(projectID, id)
	if err != nil {
		return err
	}
	metaPath := s.layout.AssetFile(projectID, id)
	contentPath := s.layout.AssetContent(projectID, id, asset.Extension)
	if err := s.codec.Delete(metaPath); err != nil {
		return err
	}
	if err := os.Remove(contentPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing payload: %w", err)
	}
	relMeta, err := s.layout.Rel(projectID, metaPath)
	if err != nil {
		return err
	}
	relContent, err := s.layout.Rel(projectID, contentPath)
	if err != nil {
		return err
	}
	if err := s.gateway.CommitFiles(ctx, s.layout.ProjectDir(projectID), "delete asset", relMeta, relContent); err != nil {
		return err
	}
	s.logger.Info("asset deleted", "project", projectID, "id", id)
	return nil
}

// ListAssets returns a page of the project's assets and the total count.
func (s *Service) ListAssets(ctx context.Context, projectID string, opts ListOptions) ([]*model.Asset, int, error) {
	refs, err := s.index.ListReferences(model.ObjectTypeAsset, projectID, "")
	if err != nil {
		return nil, 0, err
	}
	assets := make([]*model.Asset, 0, len(refs))
	for _, ref := range refs {
		asset, err := s.ReadAsset(ctx, projectID, ref.ID)
		if err != nil {
			return nil, 0, err
		}
		if !matchesFilter(asset.Name, opts.Filter) {
			continue
		}
		assets = append(assets, asset)
	}
	sortBy(assets, opts.SortBy,
		func(a *model.Asset) string { return a.Name },
		func(a *model.Asset) model.ObjectRecord { return a.ObjectRecord })
	total := len(assets)
	lo, hi := paginate(total, opts)
	return assets[lo:hi], total, nil
}

// CountAssets returns the number of assets without hydrating them.
func (s *Service) CountAssets(ctx context.Context, projectID string) (int, error) {
	refs, err := s.index.ListReferences(model.ObjectTypeAsset, projectID, "")
	if err != nil {
		return 0, err
	}
	return len(refs), nil
}

// copyFile copies src to dst and returns the number of bytes written.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("opening source file: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, fmt.Errorf("creating payload directory: %w", err)
	}
	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("creating payload file: %w", err)
	}
	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		return 0, fmt.Errorf("copying payload: %w", err)
	}
	if err := out.Close(); err != nil {
		return 0, fmt.Errorf("closing payload file: %w", err)
	}
	return n, nil
}
