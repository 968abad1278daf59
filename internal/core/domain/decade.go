package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Decade is a decade bucket label such as "1950s".
type Decade string

// DecadeOf buckets a release year by integer-dividing it by ten.
func DecadeOf(year int) Decade {
	return Decade(strconv.Itoa(year/10*10) + "s")
}

// ParseDecade validates a decade label. Surrounding whitespace is ignored;
// anything other than four digits ending in zero followed by "s" is rejected.
func ParseDecade(label string) (Decade, error) {
	s := strings.TrimSpace(label)
	if len(s) != 5 || s[4] != 's' || s[3] != '0' {
		return "", fmt.Errorf("domain: %w: decade %q", ErrUnexpectedValue, label)
	}
	if _, err := strconv.Atoi(s[:4]); err != nil {
		return "", fmt.Errorf("domain: %w: decade %q", ErrUnexpectedValue, label)
	}
	return Decade(s), nil
}

// Start returns the first year of the decade.
func (d Decade) Start() int {
	n, _ := strconv.Atoi(strings.TrimSuffix(string(d), "s"))
	return n
}

// Slug is the file-name stem used for the decade's shard.
func (d Decade) Slug() string {
	return "data_" + string(d)
}

func (d Decade) String() string {
	return string(d)
}

// SortDecades orders decades chronologically in place.
func SortDecades(ds []Decade) {
	sort.Slice(ds, func(i, j int) bool { return ds[i].Start() < ds[j].Start() })
}
