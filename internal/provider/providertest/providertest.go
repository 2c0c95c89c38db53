// Package providertest provides shared conformance tests for provider.Provider
// implementations. Call RunAll from a test function to verify a provider
// satisfies the full behavioral contract.
package providertest

import (
	"testing"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// RunAll runs the complete provider conformance suite as subtests.
func RunAll(t *testing.T, prov provider.Provider) {
	t.Helper()

	t.Run("Process", func(t *testing.T) {
		RunStore(t, prov.Process(), SampleProcess, func(r types.ProcessRecord) types.ProcessRecord {
			r.Course = "MECH2100"
			return r
		})
	})
	t.Run("Faculty", func(t *testing.T) {
		RunStore(t, prov.Faculty(), SampleFaculty, func(r types.FacultyMetric) types.FacultyMetric {
			r.GAIScore = 3
			return r
		})
	})
	t.Run("Program", func(t *testing.T) {
		RunStore(t, prov.Program(), SampleProgram, func(r types.ProgramMetric) types.ProgramMetric {
			r.AchievementLevel = 0.25
			return r
		})
	})
	t.Run("Validity", func(t *testing.T) {
		RunStore(t, prov.Validity(), SampleValidity, func(r types.ValidityRecord) types.ValidityRecord {
			r.Alignment = types.AlignmentWeak
			return r
		})
	})
	t.Run("Accreditation", func(t *testing.T) {
		RunStore(t, prov.Accreditation(), SampleAccreditation, func(r types.AccreditationReportRow) types.AccreditationReportRow {
			r.QuestText = "revised"
			return r
		})
	})
	t.Run("Annual", func(t *testing.T) {
		RunStore(t, prov.Annual(), SampleAnnual, func(r types.AnnualReportRow) types.AnnualReportRow {
			r.InstrComments = "revised"
			return r
		})
	})
	t.Run("StoresAreIndependent", func(t *testing.T) { TestStoresAreIndependent(t, prov) })
	t.Run("Ping", func(t *testing.T) { TestPing(t, prov) })
}
