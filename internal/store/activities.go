package store

import (
	"fmt"

	"github.com/straye-as/jobsite-crm/internal/domain"
	"go.uber.org/zap"
)

func activityIndex(p *domain.Project, activityID int) int {
	if p == nil {
		return -1
	}
	for i, a := range p.Activities {
		if a.ID == activityID {
			return i
		}
	}
	return -1
}

func activityLabel(a domain.Activity) string {
	return fmt.Sprintf("%s on %s", a.ActivityType, a.Date.Format("2006-01-02"))
}

// AddActivity appends an activity with the next activity id for the project
func (s *Store) AddActivity(actor domain.UserID, projectID int, activity domain.Activity) (domain.Activity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	if p == nil {
		s.miss("AddActivity", zap.Int("project_id", projectID))
		return domain.Activity{}, false
	}

	activity.ID = s.nextID(sequence{kind: seqActivity, scope: projectID},
		idsOf(p.Activities, func(a domain.Activity) int { return a.ID }))
	p.Activities = append(p.Activities, activity)

	s.record(actor, projectID, domain.ActionActivityAdded,
		fmt.Sprintf("Added %s activity", activity.ActivityType),
		domain.EntityRef{ID: activity.ID, Label: activityLabel(activity)})
	return activity, true
}

// UpdateActivity merges patch into the activity
func (s *Store) UpdateActivity(actor domain.UserID, projectID, activityID int, patch domain.ActivityPatch) (domain.Activity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	idx := activityIndex(p, activityID)
	if idx < 0 {
		s.miss("UpdateActivity", zap.Int("project_id", projectID), zap.Int("activity_id", activityID))
		return domain.Activity{}, false
	}

	before := p.Activities[idx]
	updated := mergeActivity(before, patch)
	p.Activities[idx] = updated

	names, changes := diffFields(before, updated)
	s.record(actor, projectID, domain.ActionActivityUpdated,
		fmt.Sprintf("Updated %s activity", updated.ActivityType),
		changeDetails(names, changes))
	return updated, true
}

// DeleteActivity removes the activity. Its label is captured before removal.
func (s *Store) DeleteActivity(actor domain.UserID, projectID, activityID int) (domain.Activity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.project(projectID)
	idx := activityIndex(p, activityID)
	if idx < 0 {
		s.miss("DeleteActivity", zap.Int("project_id", projectID), zap.Int("activity_id", activityID))
		return domain.Activity{}, false
	}

	removed := p.Activities[idx]
	label := activityLabel(removed)
	p.Activities = append(p.Activities[:idx:idx], p.Activities[idx+1:]...)

	s.record(actor, projectID, domain.ActionActivityDeleted,
		fmt.Sprintf("Deleted %s activity", removed.ActivityType),
		domain.EntityRef{ID: removed.ID, Label: label})
	return removed, true
}
