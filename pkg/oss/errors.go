package oss

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxErrorBodyBytes limits how much of an error response body we read
const maxErrorBodyBytes = 1 << 20

var (
	ErrNotFound         = errors.New("not found")
	ErrEmptyKey         = errors.New("object key cannot be empty")
	ErrEmptySubresource = errors.New("bucket sub-resource cannot be empty")
)

// ServiceError is returned when the object storage responds
// with a non-2xx status code.
type ServiceError struct {
	StatusCode int    `xml:"-"`
	Code       string `xml:"Code"`
	Message    string `xml:"Message"`
	RequestID  string `xml:"RequestId"`
	HostID     string `xml:"HostId"`
}

func (serviceError *ServiceError) Error() string {
	return fmt.Sprintf("object storage returned HTTP %d (code %q, request ID %q): %s",
		serviceError.StatusCode, serviceError.Code, serviceError.RequestID, serviceError.Message)
}

func (serviceError *ServiceError) Is(target error) bool {
	return target == ErrNotFound && serviceError.StatusCode == http.StatusNotFound
}

func newServiceError(response *http.Response) *ServiceError {
	serviceError := &ServiceError{
		StatusCode: response.StatusCode,
	}

	body, err := io.ReadAll(io.LimitReader(response.Body, maxErrorBodyBytes))
	if err == nil && len(body) != 0 {
		// HEAD responses and some proxies return no (or non-XML) body,
		// in which case we only have the status code to go with
		_ = xml.Unmarshal(body, serviceError)

		if serviceError.Message == "" && serviceError.Code == "" {
			serviceError.Message = string(body)
		}
	}

	if serviceError.RequestID == "" {
		serviceError.RequestID = response.Header.Get(HeaderRequestID)
	}

	if serviceError.Message == "" {
		serviceError.Message = http.StatusText(response.StatusCode)
	}

	return serviceError
}
