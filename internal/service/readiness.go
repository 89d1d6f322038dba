package service

import (
	"fmt"

	"github.com/shaneHighPeek/beesold-mission-control/internal/model"
	"github.com/shaneHighPeek/beesold-mission-control/internal/schema"
)

// FinalSubmitReadiness evaluates the submission checklist against the
// merged answers of every step and the uploaded assets. It returns the
// list of blocking reasons; an empty list means the session may be
// finally submitted. These gates are deliberately separate from
// per-field validation: they span steps and uploads, which no single
// step owns.
// minPropertyPhotos is the smallest photo set the listing team will
// work with.
const minPropertyPhotos = 3

func FinalSubmitReadiness(engine *schema.Engine, answers schema.AnswerMap, assets []model.IntakeAsset) []string {
	var blockers []string

	for _, step := range engine.Steps() {
		if errs := engine.ValidateStep(step.Key, answers); len(errs) > 0 {
			blockers = append(blockers, fmt.Sprintf("%s has %d unresolved field(s)", step.Title, len(errs)))
		}
	}

	byCategory := map[model.AssetCategory]int{}
	for _, asset := range assets {
		byCategory[asset.Category]++
	}

	if byCategory[model.AssetFinancials] == 0 {
		blockers = append(blockers, "At least one financial document must be uploaded")
	}
	if byCategory[model.AssetProperty] < minPropertyPhotos {
		blockers = append(blockers, fmt.Sprintf("At least %d property photos must be uploaded", minPropertyPhotos))
	}
	if answers["premisesTenure"].Str() == "leasehold" && byCategory[model.AssetLegal] == 0 {
		blockers = append(blockers, "A copy of the lease must be uploaded for leasehold premises")
	}

	return blockers
}
