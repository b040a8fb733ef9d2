// ABOUTME: Fractional order keys: dense, lexicographically sortable strings for positioning cards in a column.
// ABOUTME: Inserting between any two keys never requires rewriting a neighbor's key.
package order

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Digits is the base-62 alphabet. Its byte order matches its numeric order,
// so plain string comparison sorts keys correctly.
const Digits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const zero = '0'

// smallestInteger is the lowest representable integer part; nothing sorts
// before it except keys that extend it with a fraction.
var smallestInteger = "A" + strings.Repeat("0", 26)

var (
	// ErrInvalidKey indicates a string that is not a well-formed order key.
	ErrInvalidKey = errors.New("invalid order key")

	// ErrKeyRange indicates before >= after.
	ErrKeyRange = errors.New("order key range is empty")

	// ErrKeyspaceExhausted indicates the integer part cannot grow or shrink further.
	ErrKeyspaceExhausted = errors.New("order keyspace exhausted")
)

var legacyOrder = regexp.MustCompile(`^-?[0-9]+$`)

// IsLegacy reports whether order uses the old plain-integer scheme. Missing
// orders count as legacy so they get rekeyed too.
func IsLegacy(order string) bool {
	return order == "" || legacyOrder.MatchString(order)
}

// KeyBetween returns a key strictly between before and after. An empty
// before means the start of the column, an empty after means the end.
func KeyBetween(before, after string) (string, error) {
	if before != "" {
		if err := Validate(before); err != nil {
			return "", err
		}
	}
	if after != "" {
		if err := Validate(after); err != nil {
			return "", err
		}
	}
	if before != "" && after != "" && before >= after {
		return "", fmt.Errorf("%w: %q >= %q", ErrKeyRange, before, after)
	}

	if before == "" {
		if after == "" {
			return "a0", nil
		}
		ib, err := integerPart(after)
		if err != nil {
			return "", err
		}
		fb := after[len(ib):]
		if ib == smallestInteger {
			mid, err := midpoint("", fb)
			if err != nil {
				return "", err
			}
			return ib + mid, nil
		}
		if ib < after {
			return ib, nil
		}
		dec, ok := decrementInteger(ib)
		if !ok {
			return "", ErrKeyspaceExhausted
		}
		return dec, nil
	}

	ia, err := integerPart(before)
	if err != nil {
		return "", err
	}
	fa := before[len(ia):]

	if after == "" {
		inc, ok := incrementInteger(ia)
		if ok {
			return inc, nil
		}
		mid, err := midpoint(fa, "")
		if err != nil {
			return "", err
		}
		return ia + mid, nil
	}

	ib, err := integerPart(after)
	if err != nil {
		return "", err
	}
	fb := after[len(ib):]
	if ia == ib {
		mid, err := midpoint(fa, fb)
		if err != nil {
			return "", err
		}
		return ia + mid, nil
	}
	inc, ok := incrementInteger(ia)
	if !ok {
		return "", ErrKeyspaceExhausted
	}
	if inc < after {
		return inc, nil
	}
	mid, err := midpoint(fa, "")
	if err != nil {
		return "", err
	}
	return ia + mid, nil
}

// KeysBetween returns n ascending keys strictly between before and after,
// spread so that later insertions stay short.
func KeysBetween(before, after string, n int) ([]string, error) {
	switch {
	case n <= 0:
		return []string{}, nil
	case n == 1:
		k, err := KeyBetween(before, after)
		if err != nil {
			return nil, err
		}
		return []string{k}, nil
	}

	if after == "" {
		keys := make([]string, 0, n)
		prev := before
		for i := 0; i < n; i++ {
			k, err := KeyBetween(prev, after)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			prev = k
		}
		return keys, nil
	}

	if before == "" {
		keys := make([]string, n)
		next := after
		for i := n - 1; i >= 0; i-- {
			k, err := KeyBetween(before, next)
			if err != nil {
				return nil, err
			}
			keys[i] = k
			next = k
		}
		return keys, nil
	}

	half := n / 2
	mid, err := KeyBetween(before, after)
	if err != nil {
		return nil, err
	}
	left, err := KeysBetween(before, mid, half)
	if err != nil {
		return nil, err
	}
	right, err := KeysBetween(mid, after, n-half-1)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, n)
	keys = append(keys, left...)
	keys = append(keys, mid)
	return append(keys, right...), nil
}

// Validate checks that key is a well-formed order key.
func Validate(key string) error {
	if key == smallestInteger {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	ip, err := integerPart(key)
	if err != nil {
		return err
	}
	for i := 0; i < len(key); i++ {
		if strings.IndexByte(Digits, key[i]) < 0 {
			return fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}
	if frac := key[len(ip):]; strings.HasSuffix(frac, string(zero)) {
		return fmt.Errorf("%w: trailing zero in %q", ErrInvalidKey, key)
	}
	return nil
}

// integerLength returns the length of the integer part announced by head:
// 'a'..'z' are 2..27 characters, 'Z'..'A' likewise for negative integers.
func integerLength(head byte) (int, bool) {
	switch {
	case head >= 'a' && head <= 'z':
		return int(head-'a') + 2, true
	case head >= 'A' && head <= 'Z':
		return int('Z'-head) + 2, true
	}
	return 0, false
}

func integerPart(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	n, ok := integerLength(key[0])
	if !ok || n > len(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return key[:n], nil
}

// midpoint returns a fraction strictly between a and b ("" b is +infinity).
func midpoint(a, b string) (string, error) {
	if b != "" && a >= b {
		return "", fmt.Errorf("%w: %q >= %q", ErrKeyRange, a, b)
	}
	if strings.HasSuffix(a, string(zero)) || strings.HasSuffix(b, string(zero)) {
		return "", fmt.Errorf("%w: trailing zero", ErrInvalidKey)
	}
	if b != "" {
		// shared prefix, with a padded by zeros
		n := 0
		for n < len(b) {
			ca := byte(zero)
			if n < len(a) {
				ca = a[n]
			}
			if ca != b[n] {
				break
			}
			n++
		}
		if n > 0 {
			rest := ""
			if n < len(a) {
				rest = a[n:]
			}
			mid, err := midpoint(rest, b[n:])
			if err != nil {
				return "", err
			}
			return b[:n] + mid, nil
		}
	}

	digitA := 0
	if a != "" {
		digitA = strings.IndexByte(Digits, a[0])
	}
	digitB := len(Digits)
	if b != "" {
		digitB = strings.IndexByte(Digits, b[0])
	}
	if digitB-digitA > 1 {
		return string(Digits[(digitA+digitB+1)/2]), nil
	}
	if len(b) > 1 {
		return b[:1], nil
	}
	rest := ""
	if len(a) > 1 {
		rest = a[1:]
	}
	tail, err := midpoint(rest, "")
	if err != nil {
		return "", err
	}
	return string(Digits[digitA]) + tail, nil
}

func incrementInteger(x string) (string, bool) {
	head := x[0]
	digs := []byte(x[1:])
	carry := true
	for i := len(digs) - 1; carry && i >= 0; i-- {
		d := strings.IndexByte(Digits, digs[i]) + 1
		if d == len(Digits) {
			digs[i] = zero
		} else {
			digs[i] = Digits[d]
			carry = false
		}
	}
	if !carry {
		return string(head) + string(digs), true
	}
	switch head {
	case 'Z':
		return "a" + string(zero), true
	case 'z':
		return "", false
	}
	h := head + 1
	if h > 'a' {
		digs = append(digs, zero)
	} else {
		digs = digs[:len(digs)-1]
	}
	return string(h) + string(digs), true
}

func decrementInteger(x string) (string, bool) {
	head := x[0]
	digs := []byte(x[1:])
	borrow := true
	for i := len(digs) - 1; borrow && i >= 0; i-- {
		d := strings.IndexByte(Digits, digs[i]) - 1
		if d == -1 {
			digs[i] = Digits[len(Digits)-1]
		} else {
			digs[i] = Digits[d]
			borrow = false
		}
	}
	if !borrow {
		return string(head) + string(digs), true
	}
	switch head {
	case 'a':
		return "Z" + string(Digits[len(Digits)-1]), true
	case 'A':
		return "", false
	}
	h := head - 1
	if h < 'Z' {
		digs = append(digs, Digits[len(Digits)-1])
	} else {
		digs = digs[:len(digs)-1]
	}
	return string(h) + string(digs), true
}
