// Package permissions implements the approval-level matrix and privilege
// attenuation rules of spec.md §4.5: which contracts need standing,
// contextual, or just-in-time approval, and how permission scope narrows
// as it is re-delegated down a chain.
package permissions

import "github.com/coordframe/delegation/types"

// approvalMatrix is the 2-D lookup on (criticality_bucket,
// reversibility_bucket). Rows are criticality (low/med/high), columns are
// reversibility (high/med/low — high reversibility means "easily undone").
var approvalMatrix = [3][3]types.ApprovalLevel{
	// reversibility:   high                  med                    low
	/* low  */ {types.ApprovalStanding, types.ApprovalStanding, types.ApprovalContextual},
	/* med  */ {types.ApprovalStanding, types.ApprovalContextual, types.ApprovalJIT},
	/* high */ {types.ApprovalContextual, types.ApprovalJIT, types.ApprovalJIT},
}

// reversibilityColumn maps a reversibility bucket to the matrix column.
// types.ClassifyBucket orders buckets low/med/high, but the matrix columns
// run high/med/low (high reversibility = easily undone = column 0), so we
// invert the bucket here.
func reversibilityColumn(b types.Bucket) int {
	switch b {
	case types.BucketLow: // low reversibility score = irreversible = "low" column
		return 2
	case types.BucketMed:
		return 1
	default: // BucketHigh reversibility score = easily undone
		return 0
	}
}

// RequiredApproval looks up the approval level a task's characteristics
// demand.
func RequiredApproval(chars types.Characteristics) types.ApprovalLevel {
	row := int(types.ClassifyBucket(chars.Criticality))
	col := reversibilityColumn(types.ClassifyBucket(chars.Reversibility))
	return approvalMatrix[row][col]
}
