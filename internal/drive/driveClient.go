package drive

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/akolanti/DriveRAG/internal/config"
	"github.com/akolanti/DriveRAG/internal/domain/commonModels"
	"github.com/akolanti/DriveRAG/pkg/logger_i"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// Google Workspace MIME types and the formats we export them to.
const (
	MimeTypeFolder       = "application/vnd.google-apps.folder"
	MimeTypeGoogleDoc    = "application/vnd.google-apps.document"
	MimeTypeGoogleSheet  = "application/vnd.google-apps.spreadsheet"
	MimeTypeGoogleSlides = "application/vnd.google-apps.presentation"

	ExportMimeText = "text/plain"
	ExportMimeCSV  = "text/csv"
)

// ExportTarget returns the export MIME for a workspace-native file, or ""
// when the file is a regular binary that must be downloaded as-is.
func ExportTarget(mimeType string) string {
	switch mimeType {
	case MimeTypeGoogleDoc, MimeTypeGoogleSlides:
		return ExportMimeText
	case MimeTypeGoogleSheet:
		return ExportMimeCSV
	default:
		return ""
	}
}

func IsFolder(mimeType string) bool {
	return mimeType == MimeTypeFolder
}

// Storage is the cloud-storage collaborator boundary. The ingestion pipeline
// only ever talks to this interface.
type Storage interface {
	ListChildren(ctx context.Context, folderID string) ([]commonModels.FileRecord, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
	Export(ctx context.Context, fileID string, targetMime string) ([]byte, error)
	CanonicalPath(ctx context.Context, folderID string) (string, error)
}

var logger *logger_i.Logger
var driveInstance *Client
var once sync.Once

type Client struct {
	svc *drive.Service
}

// GetDriveClient builds the Drive service once. Returns nil when credentials
// are unavailable - callers treat that as a fatal, operation-aborting condition.
func GetDriveClient(ctx context.Context) *Client {
	once.Do(func() {
		logger = logger_i.NewLogger("Drive")
		credFile := os.Getenv("DRIVE_CREDENTIALS_FILE")
		if credFile == "" {
			credFile = config.DriveCredentialsFile
		}

		opts := []option.ClientOption{option.WithScopes(drive.DriveReadonlyScope)}
		if httpClient := oauthClient(ctx, credFile); httpClient != nil {
			opts = append(opts, option.WithHTTPClient(httpClient))
		} else {
			opts = append(opts, option.WithCredentialsFile(credFile))
		}

		svc, err := drive.NewService(ctx, opts...)
		if err != nil {
			logger.Error("could not build Drive service", "error", err)
			return
		}
		driveInstance = &Client{svc: svc}
		logger.Info("Drive client created")
	})

	if driveInstance == nil {
		return nil
	}
	return driveInstance
}

// oauthClient supports installed-app OAuth credentials with a cached user
// token alongside service accounts. Returns nil when no token file is
// present, the service-account path takes over.
func oauthClient(ctx context.Context, credFile string) *http.Client {
	tokenFile := os.Getenv("DRIVE_TOKEN_FILE")
	if tokenFile == "" {
		tokenFile = config.DriveTokenFile
	}

	tokenBytes, err := os.ReadFile(tokenFile)
	if err != nil {
		return nil
	}
	credBytes, err := os.ReadFile(credFile)
	if err != nil {
		return nil
	}

	conf, err := google.ConfigFromJSON(credBytes, drive.DriveReadonlyScope)
	if err != nil {
		logger.Error("could not parse OAuth credentials", "error", err)
		return nil
	}

	token := &oauth2.Token{}
	if err := json.Unmarshal(tokenBytes, token); err != nil {
		logger.Error("could not parse cached token", "error", err)
		return nil
	}

	return conf.Client(ctx, token)
}

const listFields = "nextPageToken, files(id, name, mimeType, createdTime, modifiedTime, size, webViewLink, imageMediaMetadata, videoMediaMetadata)"

func (c *Client) ListChildren(ctx context.Context, folderID string) ([]commonModels.FileRecord, error) {
	log := logger.With("traceId", ctx.Value(config.TRACE_ID_KEY), "folderId", folderID)

	var records []commonModels.FileRecord
	pageToken := ""
	query := "'" + folderID + "' in parents and trashed=false"

	//pagination is transparent - callers see one flat list
	for {
		call := c.svc.Files.List().
			Q(query).
			Spaces("drive").
			Fields(listFields).
			PageSize(config.DrivePageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			log.Error("files.list failed", "error", err)
			return nil, err
		}

		for _, f := range resp.Files {
			records = append(records, toFileRecord(f))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}

	log.Debug("listed folder children", "count", len(records))
	return records, nil
}

func (c *Client) Download(ctx context.Context, fileID string) ([]byte, error) {
	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) Export(ctx context.Context, fileID string, targetMime string) ([]byte, error) {
	resp, err := c.svc.Files.Export(fileID, targetMime).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// CanonicalPath walks the parent chain up to the Drive root and returns
// "/" + the folder ids joined root-to-leaf. A leaf folder id alone is not
// globally unique, the full path is.
func (c *Client) CanonicalPath(ctx context.Context, folderID string) (string, error) {
	var ids []string
	current := folderID

	for current != "" {
		meta, err := c.svc.Files.Get(current).Fields("id, name, parents").Context(ctx).Do()
		if err != nil {
			return "", err
		}
		ids = append(ids, meta.Id)
		if len(meta.Parents) == 0 {
			break
		}
		current = meta.Parents[0]
	}

	//reverse: collected leaf-to-root
	path := ""
	for i := len(ids) - 1; i >= 0; i-- {
		path += "/" + ids[i]
	}
	return path, nil
}

func toFileRecord(f *drive.File) commonModels.FileRecord {
	rec := commonModels.FileRecord{
		Id:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         f.Size,
		WebViewLink:  f.WebViewLink,
		CreatedTime:  parseDriveTime(f.CreatedTime),
		ModifiedTime: parseDriveTime(f.ModifiedTime),
	}

	if f.ImageMediaMetadata != nil {
		img := &commonModels.ImageMeta{
			CameraMake:  f.ImageMediaMetadata.CameraMake,
			CameraModel: f.ImageMediaMetadata.CameraModel,
			CaptureTime: f.ImageMediaMetadata.Time,
			Width:       f.ImageMediaMetadata.Width,
			Height:      f.ImageMediaMetadata.Height,
		}
		if f.ImageMediaMetadata.Location != nil {
			img.Latitude = f.ImageMediaMetadata.Location.Latitude
			img.Longitude = f.ImageMediaMetadata.Location.Longitude
			img.HasLocation = true
		}
		rec.Image = img
	}

	if f.VideoMediaMetadata != nil {
		rec.Video = &commonModels.VideoMeta{
			Width:          f.VideoMediaMetadata.Width,
			Height:         f.VideoMediaMetadata.Height,
			DurationMillis: f.VideoMediaMetadata.DurationMillis,
		}
	}

	return rec
}

func parseDriveTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
