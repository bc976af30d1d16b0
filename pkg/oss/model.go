package oss

import (
	"encoding/xml"
	"github.com/cirruslabs/asyncoss/pkg/percentencoding"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	ACLDefault         = "default"
	ACLPrivate         = "private"
	ACLPublicRead      = "public-read"
	ACLPublicReadWrite = "public-read-write"

	StorageClassStandard = "Standard"
	StorageClassIA       = "IA"
	StorageClassArchive  = "Archive"

	LiveChannelStatusEnabled  = "enabled"
	LiveChannelStatusDisabled = "disabled"
)

// Bucket sub-resources that can be accessed with the raw
// GetBucketConfig, PutBucketConfig and DeleteBucketConfig.
const (
	SubresourceACL        = "acl"
	SubresourceCORS       = "cors"
	SubresourceLifecycle  = "lifecycle"
	SubresourceLocation   = "location"
	SubresourceLogging    = "logging"
	SubresourceReferer    = "referer"
	SubresourceWebsite    = "website"
	SubresourceLive       = "live"
	SubresourceComp       = "comp"
	SubresourceStatus     = "status"
	SubresourceVod        = "vod"
	SubresourceSymlink    = "symlink"
	SubresourceStat       = "stat"
	SubresourceBucketInfo = "bucketInfo"
	SubresourceProcess    = "x-oss-process"
)

// RequestResult carries the response metadata common to all operations.
type RequestResult struct {
	StatusCode int         `xml:"-"`
	Header     http.Header `xml:"-"`
	RequestID  string      `xml:"-"`
}

func newRequestResult(response *http.Response) *RequestResult {
	return &RequestResult{
		StatusCode: response.StatusCode,
		Header:     response.Header,
		RequestID:  response.Header.Get(HeaderRequestID),
	}
}

type Owner struct {
	ID          string `xml:"ID"`
	DisplayName string `xml:"DisplayName"`
}

type ListBucketsInput struct {
	Prefix  string
	Marker  string
	MaxKeys int
}

type BucketSummary struct {
	Name             string    `xml:"Name"`
	Location         string    `xml:"Location"`
	CreationDate     time.Time `xml:"CreationDate"`
	ExtranetEndpoint string    `xml:"ExtranetEndpoint"`
	IntranetEndpoint string    `xml:"IntranetEndpoint"`
	StorageClass     string    `xml:"StorageClass"`
}

type ListBucketsResult struct {
	RequestResult

	XMLName     xml.Name        `xml:"ListAllMyBucketsResult"`
	Owner       Owner           `xml:"Owner"`
	Prefix      string          `xml:"Prefix"`
	Marker      string          `xml:"Marker"`
	MaxKeys     int             `xml:"MaxKeys"`
	IsTruncated bool            `xml:"IsTruncated"`
	NextMarker  string          `xml:"NextMarker"`
	Buckets     []BucketSummary `xml:"Buckets>Bucket"`
}

type ListObjectsInput struct {
	Prefix    string
	Delimiter string
	Marker    string
	MaxKeys   int
}

type ObjectSummary struct {
	Key          string    `xml:"Key"`
	LastModified time.Time `xml:"LastModified"`
	ETag         string    `xml:"ETag"`
	Type         string    `xml:"Type"`
	Size         int64     `xml:"Size"`
	StorageClass string    `xml:"StorageClass"`
	Owner        Owner     `xml:"Owner"`
}

type ListObjectsResult struct {
	RequestResult

	XMLName        xml.Name        `xml:"ListBucketResult"`
	Name           string          `xml:"Name"`
	Prefix         string          `xml:"Prefix"`
	Marker         string          `xml:"Marker"`
	MaxKeys        int             `xml:"MaxKeys"`
	Delimiter      string          `xml:"Delimiter"`
	EncodingType   string          `xml:"EncodingType"`
	IsTruncated    bool            `xml:"IsTruncated"`
	NextMarker     string          `xml:"NextMarker"`
	Objects        []ObjectSummary `xml:"Contents"`
	CommonPrefixes []string        `xml:"CommonPrefixes>Prefix"`
}

// decodeKeys reverts the "url" encoding type that we request
// so that keys with XML-unfriendly characters survive the round-trip
func (result *ListObjectsResult) decodeKeys() error {
	if result.EncodingType != "url" {
		return nil
	}

	var err error

	for _, field := range []*string{&result.Prefix, &result.Marker, &result.Delimiter, &result.NextMarker} {
		if *field, err = percentencoding.Decode(*field); err != nil {
			return err
		}
	}

	for i := range result.Objects {
		if result.Objects[i].Key, err = percentencoding.Decode(result.Objects[i].Key); err != nil {
			return err
		}
	}

	for i := range result.CommonPrefixes {
		if result.CommonPrefixes[i], err = percentencoding.Decode(result.CommonPrefixes[i]); err != nil {
			return err
		}
	}

	return nil
}

type ObjectMeta struct {
	RequestResult

	ContentLength int64
	ContentType   string
	ETag          string
	LastModified  time.Time
	ObjectType    string
	Metadata      map[string]string
}

func newObjectMeta(response *http.Response) *ObjectMeta {
	meta := &ObjectMeta{
		RequestResult: *newRequestResult(response),
		ContentLength: response.ContentLength,
		ContentType:   response.Header.Get("Content-Type"),
		ETag:          trimETag(response.Header.Get("ETag")),
		ObjectType:    response.Header.Get(HeaderObjectType),
		Metadata:      map[string]string{},
	}

	// HEAD responses report the object size in the header
	if rawContentLength := response.Header.Get("Content-Length"); rawContentLength != "" {
		if contentLength, err := strconv.ParseInt(rawContentLength, 10, 64); err == nil {
			meta.ContentLength = contentLength
		}
	}

	if lastModified, err := http.ParseTime(response.Header.Get("Last-Modified")); err == nil {
		meta.LastModified = lastModified
	}

	for key, values := range response.Header {
		if name, ok := strings.CutPrefix(key, HeaderMetaPrefix); ok && len(values) != 0 {
			meta.Metadata[strings.ToLower(name)] = values[0]
		}
	}

	return meta
}

type GetObjectResult struct {
	ObjectMeta

	Body io.ReadCloser
}

type PutObjectResult struct {
	RequestResult

	ETag string
}

func newPutObjectResult(response *http.Response) *PutObjectResult {
	return &PutObjectResult{
		RequestResult: *newRequestResult(response),
		ETag:          trimETag(response.Header.Get("ETag")),
	}
}

type AppendObjectResult struct {
	PutObjectResult

	NextPosition int64
}

type CopyObjectResult struct {
	RequestResult

	XMLName      xml.Name  `xml:"CopyObjectResult"`
	ETag         string    `xml:"ETag"`
	LastModified time.Time `xml:"LastModified"`
}

type deleteRequest struct {
	XMLName xml.Name       `xml:"Delete"`
	Quiet   bool           `xml:"Quiet"`
	Objects []deleteObject `xml:"Object"`
}

type deleteObject struct {
	Key string `xml:"Key"`
}

type BatchDeleteObjectsResult struct {
	RequestResult

	XMLName      xml.Name `xml:"DeleteResult"`
	EncodingType string   `xml:"EncodingType"`
	DeletedKeys  []string `xml:"Deleted>Key"`
}

type AccessControlPolicy struct {
	XMLName xml.Name `xml:"AccessControlPolicy"`
	Owner   Owner    `xml:"Owner"`
	Grant   string   `xml:"AccessControlList>Grant"`
}

type GetACLResult struct {
	RequestResult

	AccessControlPolicy
}

type GetSymlinkResult struct {
	RequestResult

	Target string
}

type CreateBucketInput struct {
	ACL          string
	StorageClass string
}

type createBucketConfiguration struct {
	XMLName      xml.Name `xml:"CreateBucketConfiguration"`
	StorageClass string   `xml:"StorageClass,omitempty"`
}

type LifecycleConfiguration struct {
	XMLName xml.Name        `xml:"LifecycleConfiguration"`
	Rules   []LifecycleRule `xml:"Rule"`
}

type LifecycleRule struct {
	ID                   string                `xml:"ID,omitempty"`
	Prefix               string                `xml:"Prefix"`
	Status               string                `xml:"Status"`
	Expiration           *LifecycleExpiration  `xml:"Expiration,omitempty"`
	AbortMultipartUpload *LifecycleExpiration  `xml:"AbortMultipartUpload,omitempty"`
	Transitions          []LifecycleTransition `xml:"Transition,omitempty"`
}

type LifecycleExpiration struct {
	Days              int    `xml:"Days,omitempty"`
	CreatedBeforeDate string `xml:"CreatedBeforeDate,omitempty"`
}

type LifecycleTransition struct {
	Days              int    `xml:"Days,omitempty"`
	CreatedBeforeDate string `xml:"CreatedBeforeDate,omitempty"`
	StorageClass      string `xml:"StorageClass"`
}

type GetBucketLifecycleResult struct {
	RequestResult

	LifecycleConfiguration
}

type GetBucketLocationResult struct {
	RequestResult

	XMLName  xml.Name `xml:"LocationConstraint"`
	Location string   `xml:",chardata"`
}

type GetBucketInfoResult struct {
	RequestResult

	XMLName          xml.Name  `xml:"BucketInfo"`
	Name             string    `xml:"Bucket>Name"`
	Location         string    `xml:"Bucket>Location"`
	CreationDate     time.Time `xml:"Bucket>CreationDate"`
	ExtranetEndpoint string    `xml:"Bucket>ExtranetEndpoint"`
	IntranetEndpoint string    `xml:"Bucket>IntranetEndpoint"`
	StorageClass     string    `xml:"Bucket>StorageClass"`
	Owner            Owner     `xml:"Bucket>Owner"`
	Grant            string    `xml:"Bucket>AccessControlList>Grant"`
}

type GetBucketStatResult struct {
	RequestResult

	XMLName              xml.Name `xml:"BucketStat"`
	Storage              int64    `xml:"Storage"`
	ObjectCount          int64    `xml:"ObjectCount"`
	MultipartUploadCount int64    `xml:"MultipartUploadCount"`
}

type InitMultipartUploadResult struct {
	RequestResult

	XMLName  xml.Name `xml:"InitiateMultipartUploadResult"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	UploadID string   `xml:"UploadId"`
}

type PartInfo struct {
	PartNumber   int       `xml:"PartNumber"`
	ETag         string    `xml:"ETag"`
	Size         int64     `xml:"Size,omitempty"`
	LastModified time.Time `xml:"LastModified"`
}

type completeMultipartUpload struct {
	XMLName xml.Name       `xml:"CompleteMultipartUpload"`
	Parts   []completePart `xml:"Part"`
}

type completePart struct {
	PartNumber int    `xml:"PartNumber"`
	ETag       string `xml:"ETag"`
}

type CompleteMultipartUploadResult struct {
	RequestResult

	XMLName  xml.Name `xml:"CompleteMultipartUploadResult"`
	Location string   `xml:"Location"`
	Bucket   string   `xml:"Bucket"`
	Key      string   `xml:"Key"`
	ETag     string   `xml:"ETag"`
}

type ListPartsInput struct {
	PartNumberMarker int
	MaxParts         int
}

type ListPartsResult struct {
	RequestResult

	XMLName              xml.Name   `xml:"ListPartsResult"`
	Bucket               string     `xml:"Bucket"`
	Key                  string     `xml:"Key"`
	UploadID             string     `xml:"UploadId"`
	PartNumberMarker     int        `xml:"PartNumberMarker"`
	NextPartNumberMarker int        `xml:"NextPartNumberMarker"`
	MaxParts             int        `xml:"MaxParts"`
	IsTruncated          bool       `xml:"IsTruncated"`
	Parts                []PartInfo `xml:"Part"`
}

type ListMultipartUploadsInput struct {
	Prefix         string
	Delimiter      string
	KeyMarker      string
	UploadIDMarker string
	MaxUploads     int
}

type MultipartUploadInfo struct {
	Key       string    `xml:"Key"`
	UploadID  string    `xml:"UploadId"`
	Initiated time.Time `xml:"Initiated"`
}

type ListMultipartUploadsResult struct {
	RequestResult

	XMLName            xml.Name              `xml:"ListMultipartUploadsResult"`
	Bucket             string                `xml:"Bucket"`
	EncodingType       string                `xml:"EncodingType"`
	KeyMarker          string                `xml:"KeyMarker"`
	UploadIDMarker     string                `xml:"UploadIdMarker"`
	NextKeyMarker      string                `xml:"NextKeyMarker"`
	NextUploadIDMarker string                `xml:"NextUploadIdMarker"`
	Delimiter          string                `xml:"Delimiter"`
	Prefix             string                `xml:"Prefix"`
	MaxUploads         int                   `xml:"MaxUploads"`
	IsTruncated        bool                  `xml:"IsTruncated"`
	Uploads            []MultipartUploadInfo `xml:"Upload"`
	CommonPrefixes     []string              `xml:"CommonPrefixes>Prefix"`
}

func (result *ListMultipartUploadsResult) decodeKeys() error {
	if result.EncodingType != "url" {
		return nil
	}

	var err error

	for _, field := range []*string{&result.Prefix, &result.KeyMarker, &result.NextKeyMarker, &result.Delimiter} {
		if *field, err = percentencoding.Decode(*field); err != nil {
			return err
		}
	}

	for i := range result.Uploads {
		if result.Uploads[i].Key, err = percentencoding.Decode(result.Uploads[i].Key); err != nil {
			return err
		}
	}

	for i := range result.CommonPrefixes {
		if result.CommonPrefixes[i], err = percentencoding.Decode(result.CommonPrefixes[i]); err != nil {
			return err
		}
	}

	return nil
}

type UploadPartCopyResult struct {
	RequestResult

	XMLName      xml.Name  `xml:"CopyPartResult"`
	ETag         string    `xml:"ETag"`
	LastModified time.Time `xml:"LastModified"`
}

type LiveChannelConfiguration struct {
	XMLName     xml.Name             `xml:"LiveChannelConfiguration"`
	Description string               `xml:"Description"`
	Status      string               `xml:"Status"`
	Target      LiveChannelTarget    `xml:"Target"`
	Snapshot    *LiveChannelSnapshot `xml:"Snapshot,omitempty"`
}

type LiveChannelTarget struct {
	Type         string `xml:"Type"`
	FragDuration int    `xml:"FragDuration,omitempty"`
	FragCount    int    `xml:"FragCount,omitempty"`
	PlaylistName string `xml:"PlaylistName,omitempty"`
}

type LiveChannelSnapshot struct {
	RoleName    string `xml:"RoleName"`
	DestBucket  string `xml:"DestBucket"`
	NotifyTopic string `xml:"NotifyTopic"`
	Interval    int    `xml:"Interval"`
}

type CreateLiveChannelResult struct {
	RequestResult

	XMLName     xml.Name `xml:"CreateLiveChannelResult"`
	PublishURLs []string `xml:"PublishUrls>Url"`
	PlayURLs    []string `xml:"PlayUrls>Url"`
}

type GetLiveChannelResult struct {
	RequestResult

	LiveChannelConfiguration
}

type ListLiveChannelsInput struct {
	Prefix  string
	Marker  string
	MaxKeys int
}

type LiveChannelSummary struct {
	Name         string    `xml:"Name"`
	Description  string    `xml:"Description"`
	Status       string    `xml:"Status"`
	LastModified time.Time `xml:"LastModified"`
	PublishURLs  []string  `xml:"PublishUrls>Url"`
	PlayURLs     []string  `xml:"PlayUrls>Url"`
}

type ListLiveChannelsResult struct {
	RequestResult

	XMLName      xml.Name             `xml:"ListLiveChannelResult"`
	Prefix       string               `xml:"Prefix"`
	Marker       string               `xml:"Marker"`
	MaxKeys      int                  `xml:"MaxKeys"`
	IsTruncated  bool                 `xml:"IsTruncated"`
	NextMarker   string               `xml:"NextMarker"`
	LiveChannels []LiveChannelSummary `xml:"LiveChannel"`
}

type LiveChannelVideoStat struct {
	Width     int    `xml:"Width"`
	Height    int    `xml:"Height"`
	FrameRate int    `xml:"FrameRate"`
	Bandwidth int64  `xml:"Bandwidth"`
	Codec     string `xml:"Codec"`
}

type LiveChannelAudioStat struct {
	Bandwidth  int64  `xml:"Bandwidth"`
	SampleRate int    `xml:"SampleRate"`
	Codec      string `xml:"Codec"`
}

type GetLiveChannelStatResult struct {
	RequestResult

	XMLName xml.Name `xml:"LiveChannelStat"`
	Status  string   `xml:"Status"`
	// Empty unless the channel is live
	ConnectedTime string                `xml:"ConnectedTime"`
	RemoteAddr    string                `xml:"RemoteAddr"`
	Video         *LiveChannelVideoStat `xml:"Video"`
	Audio         *LiveChannelAudioStat `xml:"Audio"`
}

type LiveRecord struct {
	StartTime  string `xml:"StartTime"`
	EndTime    string `xml:"EndTime"`
	RemoteAddr string `xml:"RemoteAddr"`
}

type GetLiveChannelHistoryResult struct {
	RequestResult

	XMLName xml.Name     `xml:"LiveChannelHistory"`
	Records []LiveRecord `xml:"LiveRecord"`
}

func trimETag(etag string) string {
	return strings.Trim(etag, `"`)
}
