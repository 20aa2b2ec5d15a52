package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jambiato/internal/paperdb"
	"jambiato/internal/tags"
)

func formula(index, label, tex string) paperdb.Formula {
	f := paperdb.Formula{Index: index, Tex: tex}
	if label != "" {
		f.Label = &label
	}
	return f
}

func database(fs ...paperdb.Formula) paperdb.Database {
	db := make(paperdb.Database)
	for _, f := range fs {
		db[f.Index] = f
	}
	return db
}

func tag(version, index string) tags.Tag {
	return tags.Tag{File: "f", Line: 1, Version: version, Index: index}
}

func TestMissing(t *testing.T) {
	dbs := map[string]paperdb.Database{
		"0.6.4": database(formula("1.1", "", "a"), formula("1.2", "", "b")),
	}

	res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.6.4", "1.1")})

	require.Len(t, res.Missing, 1)
	assert.Equal(t, "1.2", res.Missing[0].Index)
	assert.Empty(t, res.Outdated)
	assert.Empty(t, res.Unrecognized)
}

func TestMissingNotSuppressedByOldTag(t *testing.T) {
	// A tag for the same formula under an older version is outdated, and
	// the latest formula it fails to reference stays missing.
	dbs := map[string]paperdb.Database{
		"0.5.0": database(formula("3", "eq:x", "x")),
		"0.6.4": database(formula("3.1", "eq:x", "x")),
	}

	res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.5.0", "3")})

	require.Len(t, res.Missing, 1)
	assert.Equal(t, "3.1", res.Missing[0].Index)
	require.Len(t, res.Outdated, 1)
}

func TestOutdatedAndUnrecognized(t *testing.T) {
	dbs := map[string]paperdb.Database{
		"0.5.0": database(formula("1.1", "", "a")),
		"0.6.4": database(formula("1.1", "", "a")),
	}

	t.Run("index absent from claimed version", func(t *testing.T) {
		res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.5.0", "9.9")})
		require.Len(t, res.Outdated, 1)
		require.Len(t, res.Unrecognized, 1)
		assert.Nil(t, res.Outdated[0].Rename)
	})

	t.Run("version never indexed fails closed", func(t *testing.T) {
		res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.0.1", "1.1")})
		require.Len(t, res.Unrecognized, 1)
		require.Len(t, res.Outdated, 1)
	})

	t.Run("current tags are neither", func(t *testing.T) {
		res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.6.4", "1.1")})
		assert.Empty(t, res.Outdated)
		assert.Empty(t, res.Unrecognized)
	})
}

func TestRenameHints(t *testing.T) {
	t.Run("label match", func(t *testing.T) {
		dbs := map[string]paperdb.Database{
			"0.5.0": database(formula("3.1", "foo", "same tex")),
			"0.6.4": database(formula("3.2", "foo", "same tex")),
		}

		res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.5.0", "3.1")})

		require.Len(t, res.Outdated, 1)
		hint := res.Outdated[0].Rename
		require.NotNil(t, hint)
		assert.Equal(t, "3.1", hint.OldIndex)
		assert.Equal(t, "3.2", hint.NewIndex)
		assert.Equal(t, "foo", hint.Label)
		assert.False(t, hint.ByContent)
		assert.False(t, hint.TexChanged)
	})

	t.Run("label match with content drift", func(t *testing.T) {
		dbs := map[string]paperdb.Database{
			"0.5.0": database(formula("3.1", "foo", "old tex")),
			"0.6.4": database(formula("3.2", "foo", "new tex")),
		}

		res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.5.0", "3.1")})

		hint := res.Outdated[0].Rename
		require.NotNil(t, hint)
		assert.True(t, hint.TexChanged)
	})

	t.Run("content fallback", func(t *testing.T) {
		dbs := map[string]paperdb.Database{
			"0.5.0": database(formula("2.2", "", "x = y")),
			"0.6.4": database(formula("4.4", "", "x = y")),
		}

		res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.5.0", "2.2")})

		hint := res.Outdated[0].Rename
		require.NotNil(t, hint)
		assert.Equal(t, "4.4", hint.NewIndex)
		assert.True(t, hint.ByContent)
	})

	t.Run("no identity means no hint", func(t *testing.T) {
		dbs := map[string]paperdb.Database{
			"0.5.0": database(formula("2.2", "", "gone")),
			"0.6.4": database(formula("4.4", "", "different")),
		}

		res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.5.0", "2.2")})
		assert.Nil(t, res.Outdated[0].Rename)
	})

	t.Run("same index is not a rename", func(t *testing.T) {
		dbs := map[string]paperdb.Database{
			"0.5.0": database(formula("3.1", "foo", "t")),
			"0.6.4": database(formula("3.1", "foo", "t")),
		}

		res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.5.0", "3.1")})
		assert.Nil(t, res.Outdated[0].Rename)
	})
}

func TestHistogramAndDominant(t *testing.T) {
	dbs := map[string]paperdb.Database{
		"0.5.0": database(formula("1", "", "a"), formula("2", "", "b")),
		"0.6.4": database(formula("1.1", "", "a")),
	}
	tagList := []tags.Tag{
		tag("0.5.0", "1"),
		tag("0.5.0", "2"),
		tag("0.6.4", "1.1"),
	}

	res := Reconcile(dbs, "0.6.4", tagList)

	assert.Equal(t, map[string]int{"0.5.0": 2, "0.6.4": 1}, res.Histogram)
	assert.Equal(t, "0.5.0", res.Dominant)

	t.Run("ties break toward the newer version", func(t *testing.T) {
		res := Reconcile(dbs, "0.6.4", []tags.Tag{tag("0.5.0", "1"), tag("0.6.4", "1.1")})
		assert.Equal(t, "0.6.4", res.Dominant)
	})
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 66, Percent(2, 3))
	assert.Equal(t, 100, Percent(3, 3))
	assert.Equal(t, 0, Percent(0, 0), "empty denominator is not a crash")
}

func TestIdempotence(t *testing.T) {
	dbs := map[string]paperdb.Database{
		"0.5.0": database(formula("3.1", "foo", "t"), formula("3.2", "", "u")),
		"0.6.4": database(formula("3.2", "foo", "t"), formula("3.3", "", "v")),
	}
	tagList := []tags.Tag{
		tag("0.5.0", "3.1"),
		tag("0.5.0", "9.9"),
		tag("0.6.4", "3.3"),
	}

	first := Reconcile(dbs, "0.6.4", tagList)
	second := Reconcile(dbs, "0.6.4", tagList)
	require.Equal(t, first, second)
}
