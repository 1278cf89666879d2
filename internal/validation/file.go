package validation

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
)

const (
	MaxAvatarBytes = 2 << 20
	MaxResumeBytes = 5 << 20
)

// FileRule restricts an upload by sniffed content type and size.
type FileRule struct {
	Kind     string
	MaxBytes int
	Allowed  []string
}

var (
	AvatarRule = FileRule{Kind: "avatar", MaxBytes: MaxAvatarBytes, Allowed: []string{"image/jpeg", "image/png"}}
	ResumeRule = FileRule{Kind: "resume", MaxBytes: MaxResumeBytes, Allowed: []string{"application/pdf"}}
)

// FileError describes why a file was rejected.
type FileError struct {
	Kind   string
	Reason string
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// CheckFile sniffs data and returns its MIME type if rule accepts it. The
// declared client content type is never trusted.
func CheckFile(data []byte, rule FileRule) (string, error) {
	if len(data) == 0 {
		return "", &FileError{Kind: rule.Kind, Reason: "file is empty"}
	}
	if len(data) > rule.MaxBytes {
		return "", &FileError{Kind: rule.Kind, Reason: fmt.Sprintf("file exceeds %d MB", rule.MaxBytes>>20)}
	}

	mt := mimetype.Detect(data)
	for _, allowed := range rule.Allowed {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	return "", &FileError{Kind: rule.Kind, Reason: fmt.Sprintf("unsupported file type %s", mt.String())}
}
