package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/emustore/gsup/client/model"
	"github.com/emustore/gsup/utils"
)

var (
	defaultHttpClient = &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			IdleConnTimeout:     20 * time.Second,
			MaxIdleConns:        5,
			MaxIdleConnsPerHost: 2,
		},
	}
)

type defaultClient struct {
	c *config
}

func New(opts ...Option) (IClient, error) {
	c := &config{
		Schema: "http",
		Client: defaultHttpClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	if len(c.Host) == 0 {
		return nil, fmt.Errorf("no host found")
	}
	return &defaultClient{c: c}, nil
}

func (d *defaultClient) buildUrl(api string) string {
	return fmt.Sprintf("%s://%s%s", d.c.Schema, d.c.Host, api)
}

// resolveLocation keeps absolute session locations untouched and anchors
// server-relative ones to the configured endpoint.
func (d *defaultClient) resolveLocation(location string) string {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return location
	}
	return d.buildUrl(location)
}

func (d *defaultClient) applyAuth(req *http.Request) {
	if len(d.c.AccessKey) == 0 {
		return
	}
	req.SetBasicAuth(d.c.AccessKey, d.c.SecretKey)
}

func (d *defaultClient) do(req *http.Request) (*http.Response, error) {
	d.applyAuth(req)
	rsp, err := d.c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return rsp, nil
}

// decodeFailBody drains the response and builds a status error carrying the
// server's structured message when one is present.
func decodeFailBody(rsp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(rsp.Body, 4096))
	body := &model.ErrorBody{}
	if err := json.Unmarshal(raw, body); err == nil && len(body.Error.Message) > 0 {
		return wrapStatusError(rsp.StatusCode, body.Error.Message)
	}
	return wrapStatusError(rsp.StatusCode, strings.TrimSpace(string(raw)))
}

func decodeMetaBody(rsp *http.Response) (*model.ObjectMeta, error) {
	meta := &model.ObjectMeta{}
	if err := json.NewDecoder(rsp.Body).Decode(meta); err != nil {
		return nil, fmt.Errorf("decode object meta failed, err:%w", err)
	}
	return meta, nil
}

func checkNames(bucket string, object string, needObject bool) error {
	if err := utils.ValidateBucketName(bucket); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !needObject {
		return nil
	}
	if err := utils.ValidateObjectName(object); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (d *defaultClient) InitiateResumable(ctx context.Context, bucket, object, contentType string, totalSize int64) (*model.UploadSession, error) {
	if err := checkNames(bucket, object, true); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(&model.InitiateUploadRequest{Name: object, ContentType: contentType})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.buildUrl(apiResumableInit(bucket)), bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Upload-Content-Length", strconv.FormatInt(totalSize, 10))
	rsp, err := d.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionInitiation, err)
	}
	defer rsp.Body.Close()
	if rsp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: %w", ErrSessionInitiation, decodeFailBody(rsp))
	}
	body := &model.InitiateUploadResponse{}
	if err := json.NewDecoder(rsp.Body).Decode(body); err != nil {
		return nil, fmt.Errorf("%w: decode body failed, err:%v", ErrSessionInitiation, err)
	}
	location := rsp.Header.Get("Location")
	if len(location) == 0 {
		location = body.Location
	}
	if len(location) == 0 || len(body.SessionId) == 0 {
		return nil, fmt.Errorf("%w: no session location in response", ErrSessionInitiation)
	}
	return &model.UploadSession{
		SessionId:   body.SessionId,
		Location:    location,
		TotalSize:   totalSize,
		ContentType: contentType,
	}, nil
}

// contentRange renders the chunk window header. A zero-size upload has no
// addressable bytes, so the finalize request declares only the total.
func contentRange(offset, length, total int64) string {
	if total == 0 {
		return "bytes */0"
	}
	return fmt.Sprintf("bytes %d-%d/%d", offset, offset+length-1, total)
}

// parseAckRange turns "bytes=0-N" into the count of acknowledged bytes. A
// missing header means the server has nothing yet.
func parseAckRange(h string) (int64, error) {
	if len(h) == 0 {
		return 0, nil
	}
	idx := strings.LastIndex(h, "-")
	if !strings.HasPrefix(h, "bytes=") || idx < 0 {
		return 0, fmt.Errorf("malformed range header:%s", h)
	}
	last, err := strconv.ParseInt(h[idx+1:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed range header:%s", h)
	}
	return last + 1, nil
}

func (d *defaultClient) UploadChunk(ctx context.Context, location string, offset, length, total int64, r io.Reader) (*ChunkResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, d.resolveLocation(location), r)
	if err != nil {
		return nil, err
	}
	req.ContentLength = length
	req.Header.Set("Content-Range", contentRange(offset, length, total))
	rsp, err := d.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChunkUpload, err)
	}
	defer rsp.Body.Close()
	switch rsp.StatusCode {
	case http.StatusPermanentRedirect: // incomplete, more chunks expected
		recv, err := parseAckRange(rsp.Header.Get("Range"))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrChunkUpload, err)
		}
		return &ChunkResult{BytesReceived: recv}, nil
	case http.StatusOK, http.StatusCreated:
		meta, err := decodeMetaBody(rsp)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrChunkUpload, err)
		}
		return &ChunkResult{Complete: true, BytesReceived: total, Object: meta}, nil
	}
	return nil, fmt.Errorf("%w: %w", ErrChunkUpload, decodeFailBody(rsp))
}

func (d *defaultClient) QueryUploadStatus(ctx context.Context, location string, total int64) (*UploadStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, d.resolveLocation(location), http.NoBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Range", fmt.Sprintf("bytes */%d", total))
	rsp, err := d.do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	switch rsp.StatusCode {
	case http.StatusPermanentRedirect:
		recv, err := parseAckRange(rsp.Header.Get("Range"))
		if err != nil {
			return nil, err
		}
		return &UploadStatus{BytesReceived: recv}, nil
	case http.StatusOK, http.StatusCreated:
		meta, err := decodeMetaBody(rsp)
		if err != nil {
			return nil, err
		}
		return &UploadStatus{Complete: true, BytesReceived: total, Object: meta}, nil
	}
	return nil, decodeFailBody(rsp)
}

func (d *defaultClient) AbortUpload(ctx context.Context, location string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, d.resolveLocation(location), http.NoBody)
	if err != nil {
		return err
	}
	rsp, err := d.do(req)
	if err != nil {
		return err
	}
	defer rsp.Body.Close()
	// 499 is the canonical "session cancelled" answer, gone sessions are fine too
	if rsp.StatusCode/100 == 2 || rsp.StatusCode == 499 || rsp.StatusCode == http.StatusNotFound {
		return nil
	}
	return decodeFailBody(rsp)
}

func (d *defaultClient) MediaUpload(ctx context.Context, bucket, object, contentType string, r io.Reader) (*model.ObjectMeta, error) {
	if err := checkNames(bucket, object, true); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.buildUrl(apiMediaUpload(bucket, object)), r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	rsp, err := d.do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode/100 != 2 {
		return nil, decodeFailBody(rsp)
	}
	return decodeMetaBody(rsp)
}

func (d *defaultClient) MultipartUpload(ctx context.Context, bucket, object, contentType string, metadata map[string]string, r io.Reader) (*model.ObjectMeta, error) {
	if err := checkNames(bucket, object, true); err != nil {
		return nil, err
	}
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	metaPart, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {"application/json"}})
	if err != nil {
		return nil, err
	}
	metaBody := map[string]interface{}{
		"name":        object,
		"contentType": contentType,
	}
	if len(metadata) > 0 {
		metaBody["metadata"] = metadata
	}
	if err := json.NewEncoder(metaPart).Encode(metaBody); err != nil {
		return nil, err
	}
	dataPart, err := writer.CreatePart(textproto.MIMEHeader{"Content-Type": {contentType}})
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dataPart, r); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.buildUrl(apiMultipartUpload(bucket, object)), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", fmt.Sprintf("multipart/related; boundary=%s", writer.Boundary()))
	rsp, err := d.do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode/100 != 2 {
		return nil, decodeFailBody(rsp)
	}
	return decodeMetaBody(rsp)
}

func (d *defaultClient) StatObject(ctx context.Context, bucket, object string, generation int64) (*model.ObjectMeta, error) {
	if err := checkNames(bucket, object, true); err != nil {
		return nil, err
	}
	api := apiObject(bucket, object)
	if generation > 0 {
		api = fmt.Sprintf("%s?generation=%d", api, generation)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.buildUrl(api), http.NoBody)
	if err != nil {
		return nil, err
	}
	rsp, err := d.do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode/100 != 2 {
		return nil, decodeFailBody(rsp)
	}
	return decodeMetaBody(rsp)
}

func (d *defaultClient) ListObjects(ctx context.Context, bucket, prefix string, versions bool) ([]*model.ObjectMeta, error) {
	if err := checkNames(bucket, "", false); err != nil {
		return nil, err
	}
	query := url.Values{}
	if len(prefix) > 0 {
		query.Set("prefix", prefix)
	}
	if versions {
		query.Set("versions", "true")
	}
	api := apiListObjects(bucket)
	if len(query) > 0 {
		api = fmt.Sprintf("%s?%s", api, query.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.buildUrl(api), http.NoBody)
	if err != nil {
		return nil, err
	}
	rsp, err := d.do(req)
	if err != nil {
		return nil, err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode/100 != 2 {
		return nil, decodeFailBody(rsp)
	}
	body := &model.ListObjectsResponse{}
	if err := json.NewDecoder(rsp.Body).Decode(body); err != nil {
		return nil, fmt.Errorf("decode list body failed, err:%w", err)
	}
	return body.Items, nil
}

func (d *defaultClient) DeleteObject(ctx context.Context, bucket, object string, generation int64) error {
	if err := checkNames(bucket, object, true); err != nil {
		return err
	}
	api := apiObject(bucket, object)
	if generation > 0 {
		api = fmt.Sprintf("%s?generation=%d", api, generation)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, d.buildUrl(api), http.NoBody)
	if err != nil {
		return err
	}
	rsp, err := d.do(req)
	if err != nil {
		return err
	}
	defer rsp.Body.Close()
	if rsp.StatusCode/100 != 2 {
		return decodeFailBody(rsp)
	}
	return nil
}

func (d *defaultClient) DownloadObject(ctx context.Context, bucket, object string, generation int64) (io.ReadCloser, error) {
	if err := checkNames(bucket, object, true); err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("alt", "media")
	if generation > 0 {
		query.Set("generation", strconv.FormatInt(generation, 10))
	}
	api := fmt.Sprintf("%s?%s", apiObject(bucket, object), query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.buildUrl(api), http.NoBody)
	if err != nil {
		return nil, err
	}
	rsp, err := d.do(req)
	if err != nil {
		return nil, err
	}
	if rsp.StatusCode/100 != 2 {
		defer rsp.Body.Close()
		return nil, decodeFailBody(rsp)
	}
	return rsp.Body, nil
}
