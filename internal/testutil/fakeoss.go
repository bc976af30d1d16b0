package testutil

import (
	"bytes"
	"crypto/md5"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"github.com/brpaz/echozap"
	"github.com/cirruslabs/asyncoss/pkg/oss"
	"github.com/cirruslabs/asyncoss/pkg/percentencoding"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

type FakeObject struct {
	Data         []byte
	ContentType  string
	ETag         string
	ACL          string
	Metadata     http.Header
	LastModified time.Time
	Appendable   bool
	Symlink      string
}

type fakeBucket struct {
	acl          string
	storageClass string
	created      time.Time
	objects      *xsync.MapOf[string, *FakeObject]
	uploads      *xsync.MapOf[string, *fakeUpload]
	config       *xsync.MapOf[string, []byte]
}

type fakeUpload struct {
	key         string
	contentType string
	initiated   time.Time
	parts       *xsync.MapOf[int, []byte]
}

type RecordedRequest struct {
	Method   string
	Host     string
	Path     string
	RawQuery string
	Header   http.Header
}

// FakeOSS is an in-memory object storage server that speaks enough
// of the OSS REST API to exercise the client end-to-end. It only
// supports path-style addressing, which the client picks automatically
// for its 127.0.0.1 endpoint.
type FakeOSS struct {
	server  *httptest.Server
	buckets *xsync.MapOf[string, *fakeBucket]

	requests    []RecordedRequest
	requestsMtx sync.Mutex
}

func NewFakeOSS(t *testing.T) *FakeOSS {
	t.Helper()

	fake := &FakeOSS{
		buckets: xsync.NewMapOf[string, *fakeBucket](),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echozap.ZapLogger(zap.NewNop()))
	e.Any("/*", fake.handle)

	fake.server = httptest.NewServer(e)
	t.Cleanup(fake.server.Close)

	return fake
}

func (fake *FakeOSS) Endpoint() string {
	return fake.server.URL
}

func (fake *FakeOSS) CreateBucket(name string) {
	fake.buckets.Store(name, newFakeBucket(oss.ACLPrivate, oss.StorageClassStandard))
}

func (fake *FakeOSS) Object(bucket string, key string) (*FakeObject, bool) {
	fakeBucket, ok := fake.buckets.Load(bucket)
	if !ok {
		return nil, false
	}

	return fakeBucket.objects.Load(key)
}

func (fake *FakeOSS) Requests() []RecordedRequest {
	fake.requestsMtx.Lock()
	defer fake.requestsMtx.Unlock()

	return slices.Clone(fake.requests)
}

func (fake *FakeOSS) LastRequest() RecordedRequest {
	fake.requestsMtx.Lock()
	defer fake.requestsMtx.Unlock()

	if len(fake.requests) == 0 {
		return RecordedRequest{}
	}

	return fake.requests[len(fake.requests)-1]
}

func newFakeBucket(acl string, storageClass string) *fakeBucket {
	return &fakeBucket{
		acl:          acl,
		storageClass: storageClass,
		created:      time.Now().UTC().Truncate(time.Second),
		objects:      xsync.NewMapOf[string, *FakeObject](),
		uploads:      xsync.NewMapOf[string, *fakeUpload](),
		config:       xsync.NewMapOf[string, []byte](),
	}
}

func (fake *FakeOSS) handle(c echo.Context) error {
	request := c.Request()

	fake.requestsMtx.Lock()
	fake.requests = append(fake.requests, RecordedRequest{
		Method:   request.Method,
		Host:     request.Host,
		Path:     request.URL.EscapedPath(),
		RawQuery: request.URL.RawQuery,
		Header:   request.Header.Clone(),
	})
	fake.requestsMtx.Unlock()

	c.Response().Header().Set(oss.HeaderRequestID, uuid.NewString())

	bucketName, key, _ := strings.Cut(strings.TrimPrefix(request.URL.Path, "/"), "/")
	query := request.URL.Query()

	if bucketName == "" {
		if request.Method != http.MethodGet {
			return fail(c, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
		}

		return fake.listBuckets(c)
	}

	if key == "" && request.Method == http.MethodPut && len(query) == 0 {
		return fake.createBucket(c, bucketName)
	}

	bucket, ok := fake.buckets.Load(bucketName)
	if !ok {
		return fail(c, http.StatusNotFound, "NoSuchBucket", "the specified bucket does not exist")
	}

	if key == "" {
		return fake.handleBucket(c, bucketName, bucket)
	}

	return fake.handleObject(c, bucketName, bucket, key)
}

func (fake *FakeOSS) listBuckets(c echo.Context) error {
	result := oss.ListBucketsResult{}

	fake.buckets.Range(func(name string, bucket *fakeBucket) bool {
		result.Buckets = append(result.Buckets, oss.BucketSummary{
			Name:         name,
			Location:     "oss-test",
			CreationDate: bucket.created,
			StorageClass: bucket.storageClass,
		})

		return true
	})

	slices.SortFunc(result.Buckets, func(a, b oss.BucketSummary) int {
		return strings.Compare(a.Name, b.Name)
	})

	return c.XML(http.StatusOK, &result)
}

func (fake *FakeOSS) createBucket(c echo.Context, bucketName string) error {
	acl := c.Request().Header.Get(oss.HeaderACL)
	if acl == "" {
		acl = oss.ACLPrivate
	}

	storageClass := oss.StorageClassStandard

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	if len(body) != 0 {
		var config struct {
			StorageClass string `xml:"StorageClass"`
		}

		if err := xml.Unmarshal(body, &config); err != nil {
			return fail(c, http.StatusBadRequest, "MalformedXML", err.Error())
		}

		storageClass = config.StorageClass
	}

	fake.buckets.LoadOrStore(bucketName, newFakeBucket(acl, storageClass))

	return c.NoContent(http.StatusOK)
}

func (fake *FakeOSS) handleBucket(c echo.Context, bucketName string, bucket *fakeBucket) error {
	request := c.Request()
	query := request.URL.Query()

	switch {
	case request.Method == http.MethodPut && query.Has(oss.SubresourceACL):
		bucket.acl = request.Header.Get(oss.HeaderACL)

		return c.NoContent(http.StatusOK)
	case request.Method == http.MethodGet && query.Has(oss.SubresourceACL):
		return c.XML(http.StatusOK, &oss.AccessControlPolicy{Grant: bucket.acl})
	case request.Method == http.MethodGet && query.Has(oss.SubresourceStat):
		stat := oss.GetBucketStatResult{}

		bucket.objects.Range(func(_ string, object *FakeObject) bool {
			stat.Storage += int64(len(object.Data))
			stat.ObjectCount++

			return true
		})

		stat.MultipartUploadCount = int64(bucket.uploads.Size())

		return c.XML(http.StatusOK, &stat)
	case request.Method == http.MethodGet && query.Has(oss.SubresourceLocation):
		return c.XML(http.StatusOK, &oss.GetBucketLocationResult{Location: "oss-test"})
	case request.Method == http.MethodGet && query.Has(oss.SubresourceBucketInfo):
		return c.XML(http.StatusOK, &oss.GetBucketInfoResult{
			Name:         bucketName,
			Location:     "oss-test",
			CreationDate: bucket.created,
			StorageClass: bucket.storageClass,
			Grant:        bucket.acl,
		})
	case request.Method == http.MethodGet && query.Has("uploads"):
		return fake.listUploads(c, bucketName, bucket)
	case request.Method == http.MethodPost && query.Has("delete"):
		return fake.batchDelete(c, bucket)
	case request.Method == http.MethodGet && len(query) == 1 && firstKey(query) != "encoding-type" &&
		!query.Has("prefix") && !query.Has("marker") && !query.Has("delimiter") && !query.Has("max-keys"):
		config, ok := bucket.config.Load(firstKey(query))
		if !ok {
			return fail(c, http.StatusNotFound, "NoSuchConfiguration", "no such configuration")
		}

		return c.Blob(http.StatusOK, echo.MIMEApplicationXMLCharsetUTF8, config)
	case request.Method == http.MethodPut && len(query) == 1:
		config, err := io.ReadAll(request.Body)
		if err != nil {
			return err
		}

		bucket.config.Store(firstKey(query), config)

		return c.NoContent(http.StatusOK)
	case request.Method == http.MethodDelete && len(query) == 1:
		bucket.config.Delete(firstKey(query))

		return c.NoContent(http.StatusNoContent)
	case request.Method == http.MethodDelete:
		if bucket.objects.Size() != 0 || bucket.uploads.Size() != 0 {
			return fail(c, http.StatusConflict, "BucketNotEmpty", "the bucket is not empty")
		}

		fake.buckets.Delete(bucketName)

		return c.NoContent(http.StatusNoContent)
	case request.Method == http.MethodGet:
		return fake.listObjects(c, bucketName, bucket)
	default:
		return fail(c, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	}
}

func (fake *FakeOSS) listObjects(c echo.Context, bucketName string, bucket *fakeBucket) error {
	query := c.Request().URL.Query()

	prefix := query.Get("prefix")
	delimiter := query.Get("delimiter")
	marker := query.Get("marker")

	maxKeys := 100
	if rawMaxKeys := query.Get("max-keys"); rawMaxKeys != "" {
		var err error

		if maxKeys, err = strconv.Atoi(rawMaxKeys); err != nil {
			return fail(c, http.StatusBadRequest, "InvalidArgument", err.Error())
		}
	}

	var keys []string

	bucket.objects.Range(func(key string, _ *FakeObject) bool {
		keys = append(keys, key)

		return true
	})

	slices.Sort(keys)

	encode := func(s string) string {
		if query.Get("encoding-type") == "url" {
			return percentencoding.EncodeComponent(s)
		}

		return s
	}

	result := oss.ListObjectsResult{
		Name:         bucketName,
		Prefix:       encode(prefix),
		Marker:       encode(marker),
		Delimiter:    encode(delimiter),
		MaxKeys:      maxKeys,
		EncodingType: query.Get("encoding-type"),
	}

	seenPrefixes := map[string]struct{}{}

	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) || key <= marker {
			continue
		}

		if len(result.Objects)+len(result.CommonPrefixes) == maxKeys {
			result.IsTruncated = true

			break
		}

		result.NextMarker = encode(key)

		if delimiter != "" {
			if idx := strings.Index(key[len(prefix):], delimiter); idx != -1 {
				commonPrefix := key[:len(prefix)+idx+len(delimiter)]

				if _, ok := seenPrefixes[commonPrefix]; !ok {
					seenPrefixes[commonPrefix] = struct{}{}
					result.CommonPrefixes = append(result.CommonPrefixes, encode(commonPrefix))
				}

				continue
			}
		}

		object, ok := bucket.objects.Load(key)
		if !ok {
			continue
		}

		result.Objects = append(result.Objects, oss.ObjectSummary{
			Key:          encode(key),
			LastModified: object.LastModified,
			ETag:         object.ETag,
			Type:         "Normal",
			Size:         int64(len(object.Data)),
			StorageClass: bucket.storageClass,
		})
	}

	if !result.IsTruncated {
		result.NextMarker = ""
	}

	return c.XML(http.StatusOK, &result)
}

func (fake *FakeOSS) batchDelete(c echo.Context, bucket *fakeBucket) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	md5Sum := md5.Sum(body)
	if c.Request().Header.Get("Content-MD5") != base64.StdEncoding.EncodeToString(md5Sum[:]) {
		return fail(c, http.StatusBadRequest, "InvalidDigest", "Content-MD5 mismatch")
	}

	var payload struct {
		Keys []string `xml:"Object>Key"`
	}

	if err := xml.Unmarshal(body, &payload); err != nil {
		return fail(c, http.StatusBadRequest, "MalformedXML", err.Error())
	}

	result := oss.BatchDeleteObjectsResult{
		EncodingType: "url",
	}

	for _, key := range payload.Keys {
		bucket.objects.Delete(key)
		result.DeletedKeys = append(result.DeletedKeys, percentencoding.EncodeComponent(key))
	}

	return c.XML(http.StatusOK, &result)
}

func (fake *FakeOSS) listUploads(c echo.Context, bucketName string, bucket *fakeBucket) error {
	result := oss.ListMultipartUploadsResult{
		Bucket:       bucketName,
		EncodingType: "url",
		MaxUploads:   1000,
	}

	bucket.uploads.Range(func(uploadID string, upload *fakeUpload) bool {
		result.Uploads = append(result.Uploads, oss.MultipartUploadInfo{
			Key:       percentencoding.EncodeComponent(upload.key),
			UploadID:  uploadID,
			Initiated: upload.initiated,
		})

		return true
	})

	slices.SortFunc(result.Uploads, func(a, b oss.MultipartUploadInfo) int {
		return strings.Compare(a.Key, b.Key)
	})

	return c.XML(http.StatusOK, &result)
}

//nolint:gocyclo
func (fake *FakeOSS) handleObject(c echo.Context, bucketName string, bucket *fakeBucket, key string) error {
	request := c.Request()
	query := request.URL.Query()

	switch {
	case request.Method == http.MethodPut && query.Has("uploadId"):
		return fake.uploadPart(c, bucket, key)
	case request.Method == http.MethodPut && query.Has(oss.SubresourceACL):
		object, ok := bucket.objects.Load(key)
		if !ok {
			return fail(c, http.StatusNotFound, "NoSuchKey", "the specified key does not exist")
		}

		object.ACL = request.Header.Get(oss.HeaderObjectACL)

		return c.NoContent(http.StatusOK)
	case request.Method == http.MethodGet && query.Has(oss.SubresourceACL):
		object, ok := bucket.objects.Load(key)
		if !ok {
			return fail(c, http.StatusNotFound, "NoSuchKey", "the specified key does not exist")
		}

		return c.XML(http.StatusOK, &oss.AccessControlPolicy{Grant: object.ACL})
	case request.Method == http.MethodPut && query.Has(oss.SubresourceSymlink):
		bucket.objects.Store(key, &FakeObject{
			ETag:         etag(nil),
			ACL:          oss.ACLDefault,
			LastModified: time.Now().UTC(),
			Symlink:      request.Header.Get(oss.HeaderSymlinkTarget),
		})

		return c.NoContent(http.StatusOK)
	case request.Method == http.MethodGet && query.Has(oss.SubresourceSymlink):
		object, ok := bucket.objects.Load(key)
		if !ok || object.Symlink == "" {
			return fail(c, http.StatusNotFound, "NoSuchKey", "the specified key does not exist")
		}

		c.Response().Header().Set(oss.HeaderSymlinkTarget, object.Symlink)

		return c.NoContent(http.StatusOK)
	case request.Method == http.MethodPut && request.Header.Get(oss.HeaderCopySource) != "":
		return fake.copyObject(c, bucket, key)
	case request.Method == http.MethodPut:
		data, err := io.ReadAll(request.Body)
		if err != nil {
			return err
		}

		object := newFakeObject(data, request.Header)
		bucket.objects.Store(key, object)

		c.Response().Header().Set("ETag", object.ETag)

		return c.NoContent(http.StatusOK)
	case request.Method == http.MethodPost && query.Has("uploads"):
		uploadID := strings.ReplaceAll(uuid.NewString(), "-", "")

		bucket.uploads.Store(uploadID, &fakeUpload{
			key:         key,
			contentType: request.Header.Get("Content-Type"),
			initiated:   time.Now().UTC(),
			parts:       xsync.NewMapOf[int, []byte](),
		})

		return c.XML(http.StatusOK, &oss.InitMultipartUploadResult{
			Bucket:   bucketName,
			Key:      key,
			UploadID: uploadID,
		})
	case request.Method == http.MethodPost && query.Has("uploadId"):
		return fake.completeUpload(c, bucketName, bucket, key)
	case request.Method == http.MethodPost && query.Has("restore"):
		if _, ok := bucket.objects.Load(key); !ok {
			return fail(c, http.StatusNotFound, "NoSuchKey", "the specified key does not exist")
		}

		return c.NoContent(http.StatusAccepted)
	case request.Method == http.MethodPost && query.Has("append"):
		return fake.appendObject(c, bucket, key)
	case request.Method == http.MethodDelete && query.Has("uploadId"):
		if _, ok := bucket.uploads.LoadAndDelete(query.Get("uploadId")); !ok {
			return fail(c, http.StatusNotFound, "NoSuchUpload", "the specified upload does not exist")
		}

		return c.NoContent(http.StatusNoContent)
	case request.Method == http.MethodGet && query.Has("uploadId"):
		return fake.listParts(c, bucketName, bucket, key)
	case request.Method == http.MethodDelete:
		bucket.objects.Delete(key)

		return c.NoContent(http.StatusNoContent)
	case request.Method == http.MethodGet, request.Method == http.MethodHead:
		object, ok := bucket.objects.Load(key)
		if !ok {
			return fail(c, http.StatusNotFound, "NoSuchKey", "the specified key does not exist")
		}

		header := c.Response().Header()
		header.Set("Content-Type", object.ContentType)
		header.Set("ETag", object.ETag)

		if object.Appendable {
			header.Set(oss.HeaderObjectType, "Appendable")
		} else {
			header.Set(oss.HeaderObjectType, "Normal")
		}

		for name, values := range object.Metadata {
			header[name] = values
		}

		http.ServeContent(c.Response(), request, "", object.LastModified, bytes.NewReader(object.Data))

		return nil
	default:
		return fail(c, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	}
}

func (fake *FakeOSS) copyObject(c echo.Context, bucket *fakeBucket, key string) error {
	source, err := parseCopySource(c.Request().Header.Get(oss.HeaderCopySource))
	if err != nil {
		return fail(c, http.StatusBadRequest, "InvalidArgument", err.Error())
	}

	sourceObject, ok := fake.Object(source.bucket, source.key)
	if !ok {
		return fail(c, http.StatusNotFound, "NoSuchKey", "the specified key does not exist")
	}

	object := *sourceObject
	object.LastModified = time.Now().UTC()

	if c.Request().Header.Get(oss.HeaderMetadataDirect) == "REPLACE" {
		object.Metadata = metadataFrom(c.Request().Header)
	}

	bucket.objects.Store(key, &object)

	return c.XML(http.StatusOK, &oss.CopyObjectResult{
		ETag:         object.ETag,
		LastModified: object.LastModified,
	})
}

func (fake *FakeOSS) appendObject(c echo.Context, bucket *fakeBucket, key string) error {
	position, err := strconv.ParseInt(c.QueryParam("position"), 10, 64)
	if err != nil {
		return fail(c, http.StatusBadRequest, "InvalidArgument", err.Error())
	}

	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	object, ok := bucket.objects.Load(key)
	if !ok {
		object = newFakeObject(nil, c.Request().Header)
		object.Appendable = true
	}

	if !object.Appendable {
		return fail(c, http.StatusConflict, "ObjectNotAppendable", "the object is not appendable")
	}

	if position != int64(len(object.Data)) {
		return fail(c, http.StatusConflict, "PositionNotEqualToLength",
			"position is not equal to the object length")
	}

	object.Data = append(object.Data, data...)
	object.ETag = etag(object.Data)
	bucket.objects.Store(key, object)

	c.Response().Header().Set("ETag", object.ETag)
	c.Response().Header().Set(oss.HeaderNextAppendPos, strconv.Itoa(len(object.Data)))

	return c.NoContent(http.StatusOK)
}

func (fake *FakeOSS) uploadPart(c echo.Context, bucket *fakeBucket, key string) error {
	upload, ok := bucket.uploads.Load(c.QueryParam("uploadId"))
	if !ok || upload.key != key {
		return fail(c, http.StatusNotFound, "NoSuchUpload", "the specified upload does not exist")
	}

	partNumber, err := strconv.Atoi(c.QueryParam("partNumber"))
	if err != nil || partNumber < 1 || partNumber > 10_000 {
		return fail(c, http.StatusBadRequest, "InvalidArgument", "invalid part number")
	}

	var data []byte

	if rawCopySource := c.Request().Header.Get(oss.HeaderCopySource); rawCopySource != "" {
		source, err := parseCopySource(rawCopySource)
		if err != nil {
			return fail(c, http.StatusBadRequest, "InvalidArgument", err.Error())
		}

		sourceObject, ok := fake.Object(source.bucket, source.key)
		if !ok {
			return fail(c, http.StatusNotFound, "NoSuchKey", "the specified key does not exist")
		}

		data = sourceObject.Data

		if rawRange := c.Request().Header.Get(oss.HeaderCopySourceRange); rawRange != "" {
			var start, last int

			if _, err := fmt.Sscanf(rawRange, "bytes=%d-%d", &start, &last); err != nil ||
				start > last || last >= len(data) {
				return fail(c, http.StatusBadRequest, "InvalidArgument", "invalid copy source range")
			}

			data = data[start : last+1]
		}

		upload.parts.Store(partNumber, slices.Clone(data))

		return c.XML(http.StatusOK, &oss.UploadPartCopyResult{
			ETag:         etag(data),
			LastModified: time.Now().UTC(),
		})
	}

	data, err = io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}

	upload.parts.Store(partNumber, data)

	c.Response().Header().Set("ETag", etag(data))

	return c.NoContent(http.StatusOK)
}

func (fake *FakeOSS) completeUpload(c echo.Context, bucketName string, bucket *fakeBucket, key string) error {
	uploadID := c.QueryParam("uploadId")

	upload, ok := bucket.uploads.Load(uploadID)
	if !ok || upload.key != key {
		return fail(c, http.StatusNotFound, "NoSuchUpload", "the specified upload does not exist")
	}

	var payload struct {
		Parts []struct {
			PartNumber int    `xml:"PartNumber"`
			ETag       string `xml:"ETag"`
		} `xml:"Part"`
	}

	if err := xml.NewDecoder(c.Request().Body).Decode(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "MalformedXML", err.Error())
	}

	var data []byte

	for i, part := range payload.Parts {
		if i > 0 && payload.Parts[i-1].PartNumber >= part.PartNumber {
			return fail(c, http.StatusBadRequest, "InvalidPartOrder", "parts must be in ascending order")
		}

		partData, ok := upload.parts.Load(part.PartNumber)
		if !ok || etag(partData) != part.ETag {
			return fail(c, http.StatusBadRequest, "InvalidPart", fmt.Sprintf("invalid part %d",
				part.PartNumber))
		}

		data = append(data, partData...)
	}

	header := http.Header{}
	header.Set("Content-Type", upload.contentType)

	object := newFakeObject(data, header)
	bucket.objects.Store(key, object)
	bucket.uploads.Delete(uploadID)

	return c.XML(http.StatusOK, &oss.CompleteMultipartUploadResult{
		Location: fmt.Sprintf("%s/%s/%s", fake.Endpoint(), bucketName, key),
		Bucket:   bucketName,
		Key:      key,
		ETag:     object.ETag,
	})
}

func (fake *FakeOSS) listParts(c echo.Context, bucketName string, bucket *fakeBucket, key string) error {
	uploadID := c.QueryParam("uploadId")

	upload, ok := bucket.uploads.Load(uploadID)
	if !ok || upload.key != key {
		return fail(c, http.StatusNotFound, "NoSuchUpload", "the specified upload does not exist")
	}

	marker, _ := strconv.Atoi(c.QueryParam("part-number-marker"))

	maxParts := 1000
	if rawMaxParts := c.QueryParam("max-parts"); rawMaxParts != "" {
		maxParts, _ = strconv.Atoi(rawMaxParts)
	}

	result := oss.ListPartsResult{
		Bucket:           bucketName,
		Key:              key,
		UploadID:         uploadID,
		PartNumberMarker: marker,
		MaxParts:         maxParts,
	}

	var numbers []int

	upload.parts.Range(func(number int, _ []byte) bool {
		if number > marker {
			numbers = append(numbers, number)
		}

		return true
	})

	slices.Sort(numbers)

	for _, number := range numbers {
		if len(result.Parts) == maxParts {
			result.IsTruncated = true

			break
		}

		data, _ := upload.parts.Load(number)

		result.Parts = append(result.Parts, oss.PartInfo{
			PartNumber:   number,
			ETag:         etag(data),
			Size:         int64(len(data)),
			LastModified: upload.initiated,
		})
		result.NextPartNumberMarker = number
	}

	return c.XML(http.StatusOK, &result)
}

type copySource struct {
	bucket string
	key    string
}

func parseCopySource(raw string) (copySource, error) {
	bucket, encodedKey, ok := strings.Cut(strings.TrimPrefix(raw, "/"), "/")
	if !ok {
		return copySource{}, fmt.Errorf("malformed copy source %q", raw)
	}

	key, err := percentencoding.Decode(encodedKey)
	if err != nil {
		return copySource{}, err
	}

	return copySource{bucket: bucket, key: key}, nil
}

func newFakeObject(data []byte, header http.Header) *FakeObject {
	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &FakeObject{
		Data:         data,
		ContentType:  contentType,
		ETag:         etag(data),
		ACL:          oss.ACLDefault,
		Metadata:     metadataFrom(header),
		LastModified: time.Now().UTC().Truncate(time.Second),
	}
}

func metadataFrom(header http.Header) http.Header {
	metadata := http.Header{}

	for name, values := range header {
		if strings.HasPrefix(name, oss.HeaderMetaPrefix) {
			metadata[name] = values
		}
	}

	return metadata
}

func etag(data []byte) string {
	return fmt.Sprintf("\"%X\"", md5.Sum(data))
}

func firstKey(values map[string][]string) string {
	for key := range values {
		return key
	}

	return ""
}

func fail(c echo.Context, status int, code string, message string) error {
	errorResponse := struct {
		XMLName   xml.Name `xml:"Error"`
		Code      string   `xml:"Code"`
		Message   string   `xml:"Message"`
		RequestID string   `xml:"RequestId"`
		HostID    string   `xml:"HostId"`
	}{
		Code:      code,
		Message:   message,
		RequestID: c.Response().Header().Get(oss.HeaderRequestID),
		HostID:    c.Request().Host,
	}

	if c.Request().Method == http.MethodHead {
		return c.NoContent(status)
	}

	return c.XML(status, &errorResponse)
}
