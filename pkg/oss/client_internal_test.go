package oss

import (
	"github.com/dustin/go-humanize"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestEncodeParams(t *testing.T) {
	require.Empty(t, encodeParams(map[string]string{}))

	require.Equal(t, "acl&max-keys=10&prefix=a%20b%2Fc", encodeParams(map[string]string{
		"prefix":   "a b/c",
		"acl":      "",
		"max-keys": "10",
	}))
}

func TestMakeRange(t *testing.T) {
	require.Equal(t, "bytes=0-99", makeRange(0, 99))
	require.Equal(t, "bytes=-99", makeRange(-1, 99))
	require.Equal(t, "bytes=100-", makeRange(100, -1))
	require.Empty(t, makeRange(-1, -1))
}

func TestChoosePartSize(t *testing.T) {
	partSize, err := choosePartSize(0, 0)
	require.NoError(t, err)
	require.EqualValues(t, DefaultPartSize, partSize)

	partSize, err = choosePartSize(humanize.MiByte, minPartSize)
	require.NoError(t, err)
	require.EqualValues(t, minPartSize, partSize)

	// Part size grows to keep the number of parts within the limit
	partSize, err = choosePartSize(100*humanize.GiByte, 0)
	require.NoError(t, err)
	require.EqualValues(t, 10737419, partSize)

	_, err = choosePartSize(humanize.MiByte, humanize.KiByte)
	require.Error(t, err)

	_, err = choosePartSize(-1, 0)
	require.Error(t, err)
}

func TestNewServiceError(t *testing.T) {
	response := &http.Response{
		StatusCode: http.StatusForbidden,
		Header:     http.Header{},
		Body: io.NopCloser(strings.NewReader(`<?xml version="1.0" encoding="UTF-8"?>
<Error>
  <Code>AccessDenied</Code>
  <Message>The bucket you are attempting to access must be addressed using the specified endpoint.</Message>
  <RequestId>5C3D9175B6FC201293AD****</RequestId>
  <HostId>test.oss-cn-zhangjiakou.aliyuncs.com</HostId>
</Error>`)),
	}

	serviceError := newServiceError(response)
	require.Equal(t, http.StatusForbidden, serviceError.StatusCode)
	require.Equal(t, "AccessDenied", serviceError.Code)
	require.Equal(t, "5C3D9175B6FC201293AD****", serviceError.RequestID)
	require.Equal(t, "test.oss-cn-zhangjiakou.aliyuncs.com", serviceError.HostID)
	require.NotErrorIs(t, serviceError, ErrNotFound)

	// HEAD responses carry no body
	response = &http.Response{
		StatusCode: http.StatusNotFound,
		Header: http.Header{
			HeaderRequestID: []string{"request-id"},
		},
		Body: http.NoBody,
	}

	serviceError = newServiceError(response)
	require.Equal(t, "request-id", serviceError.RequestID)
	require.Equal(t, "Not Found", serviceError.Message)
	require.ErrorIs(t, serviceError, ErrNotFound)
}

func TestSetContentType(t *testing.T) {
	request := newRequest(http.MethodPut, "bucket", "index.html")
	setContentType(request, "index.html")
	require.Equal(t, "text/html; charset=utf-8", request.header.Get("Content-Type"))

	request = newRequest(http.MethodPut, "bucket", "README")
	setContentType(request, "README")
	require.Equal(t, defaultContentType, request.header.Get("Content-Type"))

	request = newRequest(http.MethodPut, "bucket", "index.html", WithContentType("text/plain"))
	setContentType(request, "index.html")
	require.Equal(t, "text/plain", request.header.Get("Content-Type"))
}
