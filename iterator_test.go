package artindex

import (
	"fmt"
	"slices"
	"sort"
	"testing"
	"testing/quick"
)

type readableString string

// these should be defined in order
var fixedLenKeys = []string{
	"00000",
	"00001",
	"00004",
	"00010",
	"00020",
	"20020",
}

// these should be defined in order
var mixedLenKeys = []string{
	"a1",
	"abc",
	"barbazboo",
	"f",
	"foo",
	"found",
	"zap",
	"zip",
}

var alphaKeys = []string{
	"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m",
	"n", "o", "p", "q", "r", "s", "t", "u", "v", "w", "x", "y", "z",
}

func scanAll(it *Iterator) []string {
	var out []string
	for {
		key, _, ok := it.Next()
		if !ok {
			break
		}
		out = append(out, string(key))
	}
	return out
}

func scanAllReverse(it *ReverseIterator) []string {
	var out []string
	for {
		key, _, ok := it.Previous()
		if !ok {
			break
		}
		out = append(out, string(key))
	}
	return out
}

func TestIterator_RangeScanFuzz(t *testing.T) {
	art := New()
	var set []string

	// This specifies a property where each call adds a new random key to
	// the tree.
	//
	// It also maintains a plain sorted list of the same set of keys and
	// asserts that scanning from some random key to the end produces the
	// same list as filtering all sorted keys that are lower.

	radixAddAndScan := func(newKey, searchKey readableString) []string {
		art.Insert([]byte(newKey), 0)

		t.Logf("NewKey: %q, SearchKey: %q", newKey, searchKey)

		return scanAll(art.RangeScan([]byte(searchKey), nil))
	}

	sliceAddSortAndFilter := func(newKey, searchKey readableString) []string {
		// Append the key to the set and re-sort
		set = append(set, string(newKey))
		sort.Strings(set)

		var result []string
		for i, k := range set {
			// Skip duplicates of the previous value. Note we don't just
			// store the last string to compare because empty string is a
			// valid value in the set and makes comparing on the first
			// iteration awkward.
			if i > 0 && set[i-1] == k {
				continue
			}
			if k >= string(searchKey) {
				result = append(result, k)
			}
		}
		return result
	}

	if err := quick.CheckEqual(radixAddAndScan, sliceAddSortAndFilter, nil); err != nil {
		t.Error(err)
	}
}

func TestReverseIterator_RangeScanFuzz(t *testing.T) {
	art := New()
	var set []string

	// Mirror of TestIterator_RangeScanFuzz going down: scanning below
	// some random key must match filtering the sorted set for smaller
	// keys, in reverse. An empty bound normalizes to no bound.

	radixAddAndScan := func(newKey, searchKey readableString) []string {
		art.Insert([]byte(newKey), 0)

		return scanAllReverse(art.RangeScanReverse(nil, []byte(searchKey)))
	}

	sliceAddSortAndFilter := func(newKey, searchKey readableString) []string {
		set = append(set, string(newKey))
		sort.Strings(set)

		var result []string
		for i := len(set) - 1; i >= 0; i-- {
			k := set[i]
			if i > 0 && set[i-1] == k {
				continue
			}
			if searchKey == "" || k < string(searchKey) {
				result = append(result, k)
			}
		}
		return result
	}

	if err := quick.CheckEqual(radixAddAndScan, sliceAddSortAndFilter, nil); err != nil {
		t.Error(err)
	}
}

func TestIterator_RangeScanLowerBound(t *testing.T) {
	type exp struct {
		keys   []string
		search string
		want   []string
	}
	cases := []exp{
		{
			fixedLenKeys,
			"00000",
			fixedLenKeys,
		},
		{
			fixedLenKeys,
			"00003",
			[]string{
				"00004",
				"00010",
				"00020",
				"20020",
			},
		},
		{
			fixedLenKeys,
			"00010",
			[]string{
				"00010",
				"00020",
				"20020",
			},
		},
		{
			fixedLenKeys,
			"20000",
			[]string{
				"20020",
			},
		},
		{
			fixedLenKeys,
			"20020",
			[]string{
				"20020",
			},
		},
		{
			fixedLenKeys,
			"20022",
			nil,
		},
		{
			mixedLenKeys,
			"A", // before all lower case letters
			mixedLenKeys,
		},
		{
			mixedLenKeys,
			"a1",
			mixedLenKeys,
		},
		{
			mixedLenKeys,
			"b",
			[]string{
				"barbazboo",
				"f",
				"foo",
				"found",
				"zap",
				"zip",
			},
		},
		{
			mixedLenKeys,
			"bar",
			[]string{
				"barbazboo",
				"f",
				"foo",
				"found",
				"zap",
				"zip",
			},
		},
		{
			mixedLenKeys,
			"barbazboo0",
			[]string{
				"f",
				"foo",
				"found",
				"zap",
				"zip",
			},
		},
		{
			mixedLenKeys,
			"zippy",
			nil,
		},
		{
			mixedLenKeys,
			"zi",
			[]string{
				"zip",
			},
		},

		// The lowest key is split on the same byte as the second byte in
		// the search key. The seek must notice it is already greater than
		// the bound before comparing that byte.
		{
			[]string{
				"bb",
				"bc",
			},
			"ac",
			[]string{"bb", "bc"},
		},

		// A dense set with a bound landing between populated subtrees.
		{
			[]string{"aaaba", "aabaa", "aabab", "aabcb", "aacca", "abaaa", "abacb", "abbcb", "abcaa", "abcba", "abcbb", "acaaa", "acaab", "acaac", "acaca", "acacb", "acbaa", "acbbb", "acbcc", "accca", "babaa", "babcc", "bbaaa", "bbacc", "bbbab", "bbbac", "bbbcc", "bbcab", "bbcca", "bbccc", "bcaac", "bcbca", "bcbcc", "bccac", "bccbc", "bccca", "caaab", "caacc", "cabac", "cabbb", "cabbc", "cabcb", "cacac", "cacbc", "cacca", "cbaba", "cbabb", "cbabc", "cbbaa", "cbbab", "cbbbc", "cbcbb", "cbcbc", "cbcca", "ccaaa", "ccabc", "ccaca", "ccacc", "ccbac", "cccaa", "cccac", "cccca"},
			"cbacb",
			[]string{"cbbaa", "cbbab", "cbbbc", "cbcbb", "cbcbc", "cbcca", "ccaaa", "ccabc", "ccaca", "ccacc", "ccbac", "cccaa", "cccac", "cccca"},
		},

		{
			[]string{"gcgc"},
			"",
			[]string{"gcgc"},
		},

		// Keys that are prefixes of each other.
		{
			[]string{"f", "fo", "foo", "food", "bug"},
			"foo",
			[]string{"foo", "food"},
		},

		// The empty key (a prefix of every other key) is a valid key to
		// insert and to search for.
		{
			[]string{"f", "fo", "foo", "food", "bug", ""},
			"foo",
			[]string{"foo", "food"},
		},
		{
			[]string{"f", "bug", ""},
			"",
			[]string{"", "bug", "f"},
		},
		{
			[]string{"f", "bug", "xylophone"},
			"",
			[]string{"bug", "f", "xylophone"},
		},

		// The bound is a strict prefix of several keys hanging off one
		// node.
		{
			[]string{"bar", "foo00", "foo11"},
			"foo",
			[]string{"foo00", "foo11"},
		},
	}

	for idx, test := range cases {
		t.Run(fmt.Sprintf("case%03d", idx), func(t *testing.T) {
			art := New()
			for i, k := range test.keys {
				if err := art.Insert([]byte(k), RowID(i)); err != nil {
					t.Fatalf("insert %q: %v", k, err)
				}
			}
			if art.Len() != len(test.keys) {
				t.Fatal("failed adding keys")
			}

			out := scanAll(art.RangeScan([]byte(test.search), nil))
			if !slices.Equal(out, test.want) {
				t.Fatalf("mis-match: key=%s\n  got=%v\n  want=%v", test.search,
					out, test.want)
			}
		})
	}
}

func TestIterator_RangeScanBounded(t *testing.T) {
	type exp struct {
		keys []string
		low  string
		high string
		want []string
	}
	cases := []exp{
		{fixedLenKeys, "00001", "00020", []string{"00001", "00004", "00010"}},
		{fixedLenKeys, "", "00010", []string{"00000", "00001", "00004"}},
		{fixedLenKeys, "00010", "99999", []string{"00010", "00020", "20020"}},
		{mixedLenKeys, "abc", "found", []string{"abc", "barbazboo", "f", "foo"}},
		{mixedLenKeys, "a", "a", nil},
		{mixedLenKeys, "zip", "za", nil},
		{[]string{"f", "fo", "foo", "food"}, "fo", "food", []string{"fo", "foo"}},
		{alphaKeys, "h", "p", []string{"h", "i", "j", "k", "l", "m", "n", "o"}},
	}

	for idx, test := range cases {
		t.Run(fmt.Sprintf("case%03d", idx), func(t *testing.T) {
			art := New()
			for i, k := range test.keys {
				if err := art.Insert([]byte(k), RowID(i)); err != nil {
					t.Fatalf("insert %q: %v", k, err)
				}
			}

			out := scanAll(art.RangeScan([]byte(test.low), []byte(test.high)))
			if !slices.Equal(out, test.want) {
				t.Fatalf("mis-match: [%s, %s)\n  got=%v\n  want=%v", test.low, test.high,
					out, test.want)
			}
		})
	}
}

func TestReverseIterator_RangeScanReverse(t *testing.T) {
	type exp struct {
		keys []string
		low  string
		high string
		want []string
	}
	cases := []exp{
		{fixedLenKeys, "", "", []string{"20020", "00020", "00010", "00004", "00001", "00000"}},
		{fixedLenKeys, "00001", "00020", []string{"00010", "00004", "00001"}},
		{mixedLenKeys, "", "foo", []string{"f", "barbazboo", "abc", "a1"}},
		{mixedLenKeys, "foo", "", []string{"zip", "zap", "found", "foo"}},
		{[]string{"f", "fo", "foo", "food", ""}, "", "foo", []string{"fo", "f", ""}},
		{[]string{"f", "fo", "foo", "food", ""}, "f", "fop", []string{"food", "foo", "fo", "f"}},
		{alphaKeys, "h", "p", []string{"o", "n", "m", "l", "k", "j", "i", "h"}},
		{mixedLenKeys, "a", "a", nil},
	}

	for idx, test := range cases {
		t.Run(fmt.Sprintf("case%03d", idx), func(t *testing.T) {
			art := New()
			for i, k := range test.keys {
				if err := art.Insert([]byte(k), RowID(i)); err != nil {
					t.Fatalf("insert %q: %v", k, err)
				}
			}

			out := scanAllReverse(art.RangeScanReverse([]byte(test.low), []byte(test.high)))
			if !slices.Equal(out, test.want) {
				t.Fatalf("mis-match: [%s, %s)\n  got=%v\n  want=%v", test.low, test.high,
					out, test.want)
			}
		})
	}
}

func TestIterator_ScanPrefix(t *testing.T) {
	type exp struct {
		keys   []string
		prefix string
		want   []string
	}
	cases := []exp{
		{[]string{"f", "fo", "foo", "food", "bug", "fop"}, "foo", []string{"foo", "food"}},
		{[]string{"f", "fo", "foo", "food", "bug", "fop"}, "f", []string{"f", "fo", "foo", "food", "fop"}},
		{[]string{"f", "fo", "foo", "food", "bug", "fop"}, "", []string{"bug", "f", "fo", "foo", "food", "fop"}},
		{[]string{"f", "fo", "foo", "food", "bug", "fop"}, "z", nil},
		{[]string{"\xff", "\xff\x01", "\xff\xff", "a"}, "\xff", []string{"\xff", "\xff\x01", "\xff\xff"}},
		{[]string{"\xff", "\xff\xff", "a"}, "\xff\xff", []string{"\xff\xff"}},
	}

	for idx, test := range cases {
		t.Run(fmt.Sprintf("case%03d", idx), func(t *testing.T) {
			art := New()
			for i, k := range test.keys {
				if err := art.Insert([]byte(k), RowID(i)); err != nil {
					t.Fatalf("insert %q: %v", k, err)
				}
			}

			out := scanAll(art.ScanPrefix([]byte(test.prefix)))
			if !slices.Equal(out, test.want) {
				t.Fatalf("mis-match: prefix=%q\n  got=%v\n  want=%v", test.prefix,
					out, test.want)
			}
		})
	}
}

func TestIterator_NonUniqueYieldsPerRowID(t *testing.T) {
	art := New()
	for _, rid := range []RowID{3, 1, 2} {
		if err := art.Insert([]byte("k"), rid); err != nil {
			t.Fatal(err)
		}
	}
	if err := art.Insert([]byte("a"), 9); err != nil {
		t.Fatal(err)
	}

	type pair struct {
		key string
		rid RowID
	}
	var got []pair
	it := art.RangeScan(nil, nil)
	for key, rid, ok := it.Next(); ok; key, rid, ok = it.Next() {
		got = append(got, pair{string(key), rid})
	}
	want := []pair{{"a", 9}, {"k", 1}, {"k", 2}, {"k", 3}}
	if !slices.Equal(got, want) {
		t.Fatalf("bad order: %v %v", got, want)
	}

	// Reverse yields row ids descending within each key.
	got = nil
	rit := art.RangeScanReverse(nil, nil)
	for key, rid, ok := rit.Previous(); ok; key, rid, ok = rit.Previous() {
		got = append(got, pair{string(key), rid})
	}
	want = []pair{{"k", 3}, {"k", 2}, {"k", 1}, {"a", 9}}
	if !slices.Equal(got, want) {
		t.Fatalf("bad order: %v %v", got, want)
	}
}

func TestIterator_EmptyTree(t *testing.T) {
	art := New()
	if _, _, ok := art.RangeScan(nil, nil).Next(); ok {
		t.Fatal("next on empty tree")
	}
	if _, _, ok := art.RangeScanReverse(nil, nil).Previous(); ok {
		t.Fatal("previous on empty tree")
	}
}

func TestIterator_WideFanOut(t *testing.T) {
	art := New()
	for i := 0; i < 256; i++ {
		if err := art.Insert([]byte{0x01, byte(i)}, RowID(i)); err != nil {
			t.Fatal(err)
		}
	}

	// The fan-out lives in a node256; scan a window across it.
	it := art.RangeScan([]byte{0x01, 100}, []byte{0x01, 200})
	count := 0
	for key, rid, ok := it.Next(); ok; key, rid, ok = it.Next() {
		if key[1] != byte(100+count) || rid != RowID(100+count) {
			t.Fatalf("bad entry: %v %v", key, rid)
		}
		count++
	}
	if count != 100 {
		t.Fatalf("bad len: %v %v", count, 100)
	}

	rit := art.RangeScanReverse([]byte{0x01, 100}, []byte{0x01, 200})
	count = 0
	for key, _, ok := rit.Previous(); ok; key, _, ok = rit.Previous() {
		if key[1] != byte(199-count) {
			t.Fatalf("bad entry: %v", key)
		}
		count++
	}
	if count != 100 {
		t.Fatalf("bad len: %v %v", count, 100)
	}
}
