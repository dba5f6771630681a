package utils

import (
	"fmt"
	"net"
	"regexp"
	"strings"
	"unicode/utf8"
)

var bucketNameRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{1,61}[a-z0-9]$`)

const maxObjectNameLen = 1024

// ValidateBucketName applies the bucket naming rules the emulator enforces:
// 3-63 chars, lowercase letters/digits/dot/dash/underscore, alphanumeric on
// both ends, no dotted-quad names.
func ValidateBucketName(bucket string) error {
	if !bucketNameRegexp.MatchString(bucket) {
		return fmt.Errorf("invalid bucket name:%s", bucket)
	}
	if strings.Contains(bucket, "..") {
		return fmt.Errorf("bucket name contains empty label:%s", bucket)
	}
	if net.ParseIP(bucket) != nil {
		return fmt.Errorf("bucket name must not be an ip address:%s", bucket)
	}
	return nil
}

// ValidateObjectName rejects names the storage surface cannot address.
func ValidateObjectName(object string) error {
	if len(object) == 0 || len(object) > maxObjectNameLen {
		return fmt.Errorf("object name length out of range:%d", len(object))
	}
	if !utf8.ValidString(object) {
		return fmt.Errorf("object name is not valid utf8")
	}
	if object == "." || object == ".." {
		return fmt.Errorf("invalid object name:%s", object)
	}
	if strings.ContainsAny(object, "\r\n") {
		return fmt.Errorf("object name contains line break")
	}
	return nil
}
