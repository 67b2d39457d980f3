// Package schema defines the canonical tables every source is standardized
// into, and the fixed vocabularies used by normalization and linkage.
package schema

import (
	"sort"

	"github.com/cfdb/internal/errs"
	"github.com/cfdb/internal/table"
)

// TableType names one of the canonical output tables.
type TableType string

const (
	Individuals     TableType = "individuals"
	Organizations   TableType = "organizations"
	Transactions    TableType = "transactions"
	ElectionResults TableType = "election_results"
	IDMap           TableType = "id_map"
)

// TableTypes lists the standardized table types in output order.
var TableTypes = []TableType{Individuals, Organizations, Transactions, ElectionResults}

// General entity types.
const (
	EntityIndividual   = "individual"
	EntityOrganization = "organization"
)

// Specific entity subtypes.
const (
	SubtypeDonor       = "donor"
	SubtypeCandidate   = "candidate"
	SubtypeCommittee   = "committee"
	SubtypePAC         = "pac"
	SubtypeVendor      = "vendor"
	SubtypeParty       = "party"
	SubtypeCorporation = "corporation"
	SubtypeLobbyist    = "lobbyist"
	SubtypeOther       = "other"
)

// Column names shared across tables.
const (
	ColID            = "id"
	ColEntityType    = "entity_type"
	ColEntitySubtype = "entity_subtype"
	ColFullName      = "full_name"
	ColFirstName     = "first_name"
	ColMiddleName    = "middle_name"
	ColLastName      = "last_name"
	ColSuffix        = "suffix"
	ColPreferredName = "preferred_name"
	ColName          = "name"
	ColParty         = "party"
	ColCompany       = "company"
	ColOccupation    = "occupation"
	ColAddressLine1  = "address_line_1"
	ColCity          = "city"
	ColState         = "state"
	ColZipCode       = "zip_code"
	ColSource        = "source"

	ColTransactionID   = "transaction_id"
	ColDonorID         = "donor_id"
	ColRecipientID     = "recipient_id"
	ColAmount          = "amount"
	ColDate            = "date"
	ColYear            = "year"
	ColTransactionType = "transaction_type"
	ColPurpose         = "purpose"
	ColOfficeSought    = "office_sought"
	ColDistrict        = "district"

	ColCandidateID   = "candidate_id"
	ColCandidateName = "candidate_name"
	ColOffice        = "office"
	ColElectionType  = "election_type"
	ColVotes         = "votes"
	ColOutcome       = "outcome"

	ColTableType   = "table_type"
	ColOriginalID  = "original_id"
	ColCanonicalID = "canonical_id"
)

var (
	individualsSchema = table.Schema{
		{Name: ColID}, {Name: ColEntityType}, {Name: ColEntitySubtype},
		{Name: ColFullName}, {Name: ColFirstName}, {Name: ColMiddleName}, {Name: ColLastName},
		{Name: ColSuffix}, {Name: ColPreferredName}, {Name: ColParty}, {Name: ColCompany},
		{Name: ColOccupation}, {Name: ColAddressLine1}, {Name: ColCity}, {Name: ColState},
		{Name: ColZipCode}, {Name: ColSource},
	}
	organizationsSchema = table.Schema{
		{Name: ColID}, {Name: ColEntityType}, {Name: ColEntitySubtype}, {Name: ColName},
		{Name: ColParty}, {Name: ColAddressLine1}, {Name: ColCity}, {Name: ColState},
		{Name: ColZipCode}, {Name: ColSource},
	}
	transactionsSchema = table.Schema{
		{Name: ColTransactionID}, {Name: ColDonorID}, {Name: ColRecipientID},
		{Name: ColAmount, Kind: table.Float}, {Name: ColDate, Kind: table.Date},
		{Name: ColYear, Kind: table.Float}, {Name: ColTransactionType}, {Name: ColPurpose},
		{Name: ColOfficeSought}, {Name: ColDistrict}, {Name: ColSource},
	}
	electionResultsSchema = table.Schema{
		{Name: ColID}, {Name: ColCandidateID}, {Name: ColCandidateName}, {Name: ColFirstName},
		{Name: ColLastName}, {Name: ColParty}, {Name: ColOffice}, {Name: ColDistrict},
		{Name: ColState}, {Name: ColYear, Kind: table.Float}, {Name: ColElectionType},
		{Name: ColVotes, Kind: table.Float}, {Name: ColOutcome}, {Name: ColSource},
	}
	idMapSchema = table.Schema{{Name: ColTableType}, {Name: ColOriginalID}, {Name: ColCanonicalID}}
)

// For returns a copy of the canonical schema of t.
func For(t TableType) (table.Schema, error) {
	var s table.Schema
	switch t {
	case Individuals:
		s = individualsSchema
	case Organizations:
		s = organizationsSchema
	case Transactions:
		s = transactionsSchema
	case ElectionResults:
		s = electionResultsSchema
	case IDMap:
		s = idMapSchema
	default:
		return nil, &errs.ConfigurationError{Kind: "table type", Name: string(t)}
	}
	return append(table.Schema(nil), s...), nil
}

// MustFor is For for the built-in table types.
func MustFor(t TableType) table.Schema {
	s, err := For(t)
	if err != nil {
		panic(err)
	}
	return s
}

// IDColumn returns the identifier column of t.
func IDColumn(t TableType) string {
	if t == Transactions {
		return ColTransactionID
	}
	return ColID
}

// ParseTableType validates a table type name.
func ParseTableType(s string) (TableType, error) {
	t := TableType(s)
	if _, err := For(t); err != nil {
		return "", err
	}
	return t, nil
}

// NewTable returns an empty canonical table.
func NewTable(t TableType) *table.Table {
	return table.New(string(t), MustFor(t))
}

// TableSet is a collection of tables keyed by table type.
type TableSet map[TableType]*table.Table

// Names returns the present table names: canonical types first, in output
// order, then id_map, then anything else sorted.
func (ts TableSet) Names() []TableType {
	known := append(append([]TableType(nil), TableTypes...), IDMap)
	seen := make(map[TableType]bool, len(known))
	var out []TableType
	for _, t := range known {
		seen[t] = true
		if _, ok := ts[t]; ok {
			out = append(out, t)
		}
	}
	var extra []TableType
	for t := range ts {
		if !seen[t] {
			extra = append(extra, t)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}
