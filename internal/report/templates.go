package report

import (
	"fmt"

	"github.com/example/dts-backend/internal/model"
)

const inspectionTemplate = `After detailed inspection and diagnostic evaluation, the unit was found to have internal electrical malfunction.

Necessary diagnostic checks were carried out to identify the root cause.

(Detailed internal inspection checklists are maintained for internal service records and are not included in this report.)`

const serviceTemplate = `The following service actions were performed:

• Internal electrical section serviced
• Defective components replaced
• Internal connections cleaned and secured
• Cooling system checked and restored
• Complete functional verification completed

All repairs were carried out using standard industrial service procedures.`

const testingTemplate = `The drive was tested under controlled conditions with rated input supply.

Test Results:
✔ Drive operates normally
✔ No abnormal heating observed
✔ Output parameters within permissible limits
✔ Unit successfully passed load testing`

const warrantyTemplateFmt = `The repair is covered under warranty against workmanship-related defects.

WARRANTY PERIOD:
Start Date: %s
End Date: %s

Warranty does not cover physical damage, mishandling, improper installation, or electrical misuse.`

const declarationText = "The above-mentioned equipment has been inspected, repaired, and tested as per standard service practices and is found to be in satisfactory working condition at the time of dispatch."

// sectionText appends the operator's remarks to a boilerplate template.
// An empty remark keeps the boilerplate alone.
func sectionText(template, remarks string) string {
	if remarks == "" {
		return template
	}
	return template + "\n\nAdditional Remarks:\n" + remarks
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}

// SectionTexts resolves the final text of the four report sections for
// a job: boilerplate, warranty dates interpolated, remarks merged.
func SectionTexts(job model.Job, sec model.Sections) (inspection, service, testing, warranty string) {
	inspection = sectionText(inspectionTemplate, sec.Inspection)
	service = sectionText(serviceTemplate, sec.Service)
	testing = sectionText(testingTemplate, sec.Testing)

	wt := warrantyTemplate(job)
	warranty = sectionText(wt, sec.Warranty)
	return
}

func warrantyTemplate(job model.Job) string {
	return fmt.Sprintf(warrantyTemplateFmt, orNA(job.WarrantyStart), orNA(job.WarrantyEnd))
}
