package format

import (
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/partons-hub/partons/internal/resource"
)

var legacyMemberName = regexp.MustCompile(`_(\d{4})\.dat$`)

func nativeName(entryPath string) (string, error) {
	base := path.Base(strings.TrimSuffix(entryPath, "/"))
	if base == "." || base == "/" || base == "" {
		return "", &UnrecognizedEntryError{Entry: entryPath}
	}
	return base, nil
}

func legacyName(entryPath string) (string, error) {
	base, err := nativeName(entryPath)
	if err != nil {
		return "", err
	}
	if strings.HasSuffix(base, ".info") {
		return resource.InfoName, nil
	}
	if m := legacyMemberName.FindStringSubmatch(base); m != nil {
		n, err := strconv.ParseUint(m[1], 10, 32)
		if err != nil {
			return "", &UnrecognizedEntryError{Entry: entryPath}
		}
		return resource.MemberFileName(uint32(n)), nil
	}
	return "", &UnrecognizedEntryError{Entry: entryPath}
}
