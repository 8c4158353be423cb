package tenant

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/peeksync/internal/common"
	"github.com/dmitrijs2005/peeksync/internal/filex"
	"github.com/dmitrijs2005/peeksync/internal/logging"
	"github.com/dmitrijs2005/peeksync/internal/server/models"
	"github.com/dmitrijs2005/peeksync/internal/server/repositories/profiles"
)

// MigrationReport counts what MigrateFolders did.
type MigrationReport struct {
	Renamed int
	Created int
	Skipped int
	Unknown int
}

// MigrateFolders renames slug-named profile folders to their profile UUIDs.
// Running it again is a no-op.
func MigrateFolders(ctx context.Context, dataDir string, repo profiles.Repository, log logging.Logger) (MigrationReport, error) {
	var report MigrationReport
	resolver := NewResolver(repo, log)

	userIDs, err := filex.SubDirs(dataDir)
	if err != nil {
		return report, fmt.Errorf("list users: %w", err)
	}

	for _, userID := range userIDs {
		profilesDir := filepath.Join(dataDir, userID, "profiles")
		folders, err := filex.SubDirs(profilesDir)
		if err != nil {
			return report, fmt.Errorf("list profiles of %s: %w", userID, err)
		}

		for _, folder := range folders {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			if isUUID(folder) {
				continue
			}

			p, err := repo.GetBySlug(ctx, userID, folder)
			switch {
			case err == nil:
			case errors.Is(err, common.ErrorNotFound) && folder == models.DefaultProfileSlug:
				if p, err = resolver.EnsureDefaultProfile(ctx, userID); err != nil {
					return report, err
				}
				report.Created++
			case errors.Is(err, common.ErrorNotFound):
				log.Warn(ctx, "legacy profile folder has no profile, leaving it", "user_id", userID, "folder", folder)
				report.Unknown++
				continue
			default:
				return report, fmt.Errorf("lookup %s/%s: %w", userID, folder, err)
			}

			from := filepath.Join(profilesDir, folder)
			to := filepath.Join(profilesDir, p.ID)
			exists, err := filex.Exists(to)
			if err != nil {
				return report, err
			}
			if exists {
				log.Warn(ctx, "profile folder already migrated, skipping legacy copy", "user_id", userID, "folder", folder, "profile_id", p.ID)
				report.Skipped++
				continue
			}

			if err := os.Rename(from, to); err != nil {
				return report, fmt.Errorf("rename %s: %w", from, err)
			}
			log.Info(ctx, "profile folder migrated", "user_id", userID, "folder", folder, "profile_id", p.ID)
			report.Renamed++
		}
	}
	return report, nil
}
