package dynamodb

import (
	"strings"

	"github.com/dwsmith1983/accredit/pkg/types"
)

// Attribute and index names.
const (
	attrPK     = "PK"
	attrSK     = "SK"
	attrGSI1PK = "GSI1PK"
	attrGSI1SK = "GSI1SK"
	indexGSI1  = "GSI1"

	skProjection = "PROJECTION"
	prefixKind   = "KIND#"
)

// projectionPK returns the partition key for one projection of one observation,
// e.g. "FACULTY#01J...".
func projectionPK(kind types.ProjectionKind, id string) string {
	return strings.ToUpper(string(kind)) + "#" + id
}

func projectionSK() string { return skProjection }

// kindGSI1PK groups every record of one projection under a single GSI1 partition.
func kindGSI1PK(kind types.ProjectionKind) string { return prefixKind + string(kind) }
