package model

import "strings"

// MasterRow mirrors the Parquet schema of a master code list snapshot.
// Synonyms are pipe-delimited in the snapshot to keep the schema flat.
type MasterRow struct {
	Code            string `parquet:"code"`
	ShortLabel      string `parquet:"short_label,optional"`
	LongDescription string `parquet:"long_description,optional"`
	Section         string `parquet:"section,optional"`
	Category        string `parquet:"category,optional"`
	Synonyms        string `parquet:"synonyms,optional"`
}

// ToEntry converts a snapshot row into a MasterEntry.
func (r *MasterRow) ToEntry() MasterEntry {
	e := MasterEntry{
		Code:            r.Code,
		ShortLabel:      r.ShortLabel,
		LongDescription: r.LongDescription,
		Section:         r.Section,
		Category:        r.Category,
	}
	for _, s := range strings.Split(r.Synonyms, "|") {
		if s = strings.TrimSpace(s); s != "" {
			e.Synonyms = append(e.Synonyms, s)
		}
	}
	return e
}

// FromEntry converts a MasterEntry into its snapshot representation.
func FromEntry(e *MasterEntry) MasterRow {
	return MasterRow{
		Code:            e.Code,
		ShortLabel:      e.ShortLabel,
		LongDescription: e.LongDescription,
		Section:         e.Section,
		Category:        e.Category,
		Synonyms:        strings.Join(e.Synonyms, "|"),
	}
}
