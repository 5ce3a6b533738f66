package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"yieldcurve-lab/internal/domain"
)

// ComputePointID computes a deterministic point_id using SHA256.
// Formula: SHA256(date|curve_name|tenor_years)
// Returns hex-encoded hash (64 characters).
//
// The tenor is rendered with the shortest exact representation so 2 and 2.0
// address the same point.
func ComputePointID(date time.Time, curveName string, tenorYears float64) string {
	data := fmt.Sprintf("%s|%s|%s",
		domain.FormatDate(domain.NormalizeDate(date)),
		curveName,
		domain.FormatTenor(tenorYears),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// PointIDOf computes the point_id of a curve point.
func PointIDOf(p domain.CurvePoint) string {
	return ComputePointID(p.Date, p.CurveName, p.TenorYears)
}
