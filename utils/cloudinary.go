package utils

import (
	"context"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"pgstay/config"
	"pgstay/models"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

var ErrImageStoreDisabled = errors.New("image uploads are not configured")

// ImageStore is the CDN that hosts listing photos.
type ImageStore interface {
	Upload(ctx context.Context, filename string, r io.Reader) (models.Photo, error)
	Destroy(ctx context.Context, publicID string) error
}

// CloudinaryStore talks to the Cloudinary upload API with signed requests.
type CloudinaryStore struct {
	client    *resty.Client
	cloudName string
	apiKey    string
	apiSecret string
	folder    string
	now       func() time.Time
}

func NewCloudinaryStore(cfg *config.Config) *CloudinaryStore {
	return newCloudinaryStore(cfg, "https://api.cloudinary.com/v1_1/"+cfg.CloudinaryCloudName)
}

func newCloudinaryStore(cfg *config.Config, baseURL string) *CloudinaryStore {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)

	return &CloudinaryStore{
		client:    client,
		cloudName: cfg.CloudinaryCloudName,
		apiKey:    cfg.CloudinaryAPIKey,
		apiSecret: cfg.CloudinaryAPISecret,
		folder:    cfg.CloudinaryFolder,
		now:       time.Now,
	}
}

func (s *CloudinaryStore) Enabled() bool {
	return s.cloudName != "" && s.apiKey != "" && s.apiSecret != ""
}

type cloudinaryError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends one image and returns its delivery URL and public id.
func (s *CloudinaryStore) Upload(ctx context.Context, filename string, r io.Reader) (models.Photo, error) {
	if !s.Enabled() {
		return models.Photo{}, ErrImageStoreDisabled
	}

	params := map[string]string{
		"public_id": uuid.NewString(),
		"timestamp": fmt.Sprintf("%d", s.now().Unix()),
	}
	if s.folder != "" {
		params["folder"] = s.folder
	}

	form := map[string]string{
		"api_key":   s.apiKey,
		"signature": s.sign(params),
	}
	for k, v := range params {
		form[k] = v
	}

	var result struct {
		SecureURL string `json:"secure_url"`
		URL       string `json:"url"`
		PublicID  string `json:"public_id"`
	}
	var cloudErr cloudinaryError

	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, r).
		SetFormData(form).
		SetResult(&result).
		SetError(&cloudErr).
		Post("/image/upload")
	if err != nil {
		return models.Photo{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.IsError() {
		return models.Photo{}, fmt.Errorf("cloudinary upload: status %d: %s", resp.StatusCode(), cloudErr.Error.Message)
	}

	photoURL := result.SecureURL
	if photoURL == "" {
		photoURL = result.URL
	}
	if photoURL == "" {
		return models.Photo{}, errors.New("cloudinary upload: no URL returned")
	}

	return models.Photo{URL: photoURL, PublicID: result.PublicID}, nil
}

// Destroy removes an image by public id.
func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	if !s.Enabled() {
		return ErrImageStoreDisabled
	}
	if publicID == "" {
		return errors.New("cloudinary destroy: missing public id")
	}

	params := map[string]string{
		"public_id": publicID,
		"timestamp": fmt.Sprintf("%d", s.now().Unix()),
	}

	var result struct {
		Result string `json:"result"`
	}
	var cloudErr cloudinaryError

	resp, err := s.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"public_id": params["public_id"],
			"timestamp": params["timestamp"],
			"api_key":   s.apiKey,
			"signature": s.sign(params),
		}).
		SetResult(&result).
		SetError(&cloudErr).
		Post("/image/destroy")
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("cloudinary destroy: status %d: %s", resp.StatusCode(), cloudErr.Error.Message)
	}
	if result.Result != "ok" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, result.Result)
	}
	return nil
}

// sign is SHA1 over the alphabetically sorted params followed by the secret.
func (s *CloudinaryStore) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	return fmt.Sprintf("%x", sha1.Sum([]byte(strings.Join(pairs, "&")+s.apiSecret)))
}

// PublicIDFromURL recovers the public id from a Cloudinary delivery URL:
// https://res.cloudinary.com/{cloud}/image/upload/v{version}/{public_id}.{format}
func PublicIDFromURL(photoURL string) string {
	u, err := url.Parse(photoURL)
	if err != nil || !strings.Contains(u.Host, "cloudinary.com") {
		return ""
	}

	idx := strings.Index(u.Path, "/upload/")
	if idx == -1 {
		return ""
	}
	rest := u.Path[idx+len("/upload/"):]

	segments := strings.Split(rest, "/")
	if len(segments) > 1 && strings.HasPrefix(segments[0], "v") && isDigits(segments[0][1:]) {
		segments = segments[1:]
	}
	id := strings.Join(segments, "/")
	return strings.TrimSuffix(id, path.Ext(id))
}

// PhotoPublicID prefers the stored id and falls back to parsing the URL.
func PhotoPublicID(photo models.Photo) string {
	if photo.PublicID != "" {
		return photo.PublicID
	}
	return PublicIDFromURL(photo.URL)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
