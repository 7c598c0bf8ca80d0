package planner

import (
	"fmt"
	"sort"

	"github.com/sekolahku/kurikulum/internal/curriculum"
)

// PropagationPlan is the outcome of planning one propagation run: the items
// to create, in order, and how many sources were skipped as already
// materialized downstream.
type PropagationPlan struct {
	Created []curriculum.Item
	Skipped int
}

// PlanPropagation derives the records a propagation run would create,
// without touching the store. Sources are walked in OrderIndex order;
// a source whose objective text already matches a target (per the matcher)
// is skipped, never updated. Re-running the plan against the targets it
// produced yields an empty plan.
func PlanPropagation(from, to curriculum.Stage, sources, targets []curriculum.Item, matcher Matcher, semester int) (PropagationPlan, error) {
	if to != from+1 {
		return PropagationPlan{}, fmt.Errorf("cannot propagate from %s to %s: stages are sequential", from, to)
	}
	if matcher == nil {
		matcher = ExactMatcher{}
	}

	ordered := make([]curriculum.Item, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OrderIndex < ordered[j].OrderIndex
	})

	// Outcome entries may fan out into several analysis rows over time, so
	// that boundary numbers new rows after the current target maximum
	// instead of copying source indexes.
	counter := 0
	if from == curriculum.StageOutcome {
		for _, t := range targets {
			if t.OrderIndex > counter {
				counter = t.OrderIndex
			}
		}
	}

	var plan PropagationPlan
	for _, src := range ordered {
		if matchesAny(src.ObjectiveText, targets, plan.Created, matcher) {
			plan.Skipped++
			continue
		}

		item := mapToStage(to, src)
		if from == curriculum.StageOutcome {
			counter++
			item.OrderIndex = counter
		}
		if to == curriculum.StageSemester && semester != 0 {
			item.Semester = semester
		}
		plan.Created = append(plan.Created, item)
	}
	return plan, nil
}

func matchesAny(key string, targets, planned []curriculum.Item, matcher Matcher) bool {
	for _, t := range targets {
		if matcher.Match(key, t.ObjectiveText) {
			return true
		}
	}
	for _, p := range planned {
		if matcher.Match(key, p.ObjectiveText) {
			return true
		}
	}
	return false
}

// mapToStage builds the candidate target record by direct field mapping.
// The downstream item never keeps the source's ID or assigned dates.
func mapToStage(to curriculum.Stage, src curriculum.Item) curriculum.Item {
	item := curriculum.Item{
		Phase:          src.Phase,
		Grade:          src.Grade,
		Subject:        src.Subject,
		ObjectiveText:  src.ObjectiveText,
		TopicText:      src.TopicText,
		MaterialText:   src.MaterialText,
		AllocatedHours: src.AllocatedHours,
		OrderIndex:     src.OrderIndex,
	}

	// Entering the yearly program, the flow's material becomes the program
	// topic when the flow carries one.
	if to == curriculum.StageYearly && src.MaterialText != "" {
		item.TopicText = src.MaterialText
	}

	return item
}
