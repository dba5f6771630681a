package client

import (
	"fmt"
	"net/url"
)

const (
	apiUploadPrefix  = "/upload/storage/v1/b"
	apiStoragePrefix = "/storage/v1/b"
)

func apiResumableInit(bucket string) string {
	return fmt.Sprintf("%s/%s/o?uploadType=resumable", apiUploadPrefix, url.PathEscape(bucket))
}

func apiMediaUpload(bucket, object string) string {
	return fmt.Sprintf("%s/%s/o?uploadType=media&name=%s", apiUploadPrefix, url.PathEscape(bucket), url.QueryEscape(object))
}

func apiMultipartUpload(bucket, object string) string {
	return fmt.Sprintf("%s/%s/o?uploadType=multipart&name=%s", apiUploadPrefix, url.PathEscape(bucket), url.QueryEscape(object))
}

func apiObject(bucket, object string) string {
	return fmt.Sprintf("%s/%s/o/%s", apiStoragePrefix, url.PathEscape(bucket), url.PathEscape(object))
}

func apiListObjects(bucket string) string {
	return fmt.Sprintf("%s/%s/o", apiStoragePrefix, url.PathEscape(bucket))
}
