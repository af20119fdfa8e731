package memstore

import (
	"time"

	"gorm.io/datatypes"

	"github.com/numaras/salesagent-sub000/internal/models"
)

func cloneValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case datatypes.JSONMap:
		return cloneJSONMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []map[string]interface{}:
		out := make([]map[string]interface{}, len(t))
		for i, val := range t {
			out[i] = cloneValue(val).(map[string]interface{})
		}
		return out
	default:
		return v
	}
}

func cloneJSONMap(m datatypes.JSONMap) datatypes.JSONMap {
	if m == nil {
		return nil
	}
	out := make(datatypes.JSONMap, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneSlice[T any](s datatypes.JSONSlice[T]) datatypes.JSONSlice[T] {
	if s == nil {
		return nil
	}
	return append(datatypes.JSONSlice[T](nil), s...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	c := *f
	return &c
}

func cloneTenant(t models.Tenant) models.Tenant {
	t.ManualApprovalOperations = cloneSlice(t.ManualApprovalOperations)
	return t
}

func clonePrincipal(p models.Principal) models.Principal {
	p.PlatformMappings = cloneJSONMap(p.PlatformMappings)
	return p
}

func cloneCreative(c models.Creative) models.Creative {
	c.FormatParameters = cloneJSONMap(c.FormatParameters)
	c.Data = cloneJSONMap(c.Data)
	return c
}

func cloneAssignment(a models.CreativeAssignment) models.CreativeAssignment {
	a.PlacementIDs = cloneSlice(a.PlacementIDs)
	return a
}

func cloneMediaBuy(b models.MediaBuy) models.MediaBuy {
	b.StartTime = cloneTime(b.StartTime)
	b.EndTime = cloneTime(b.EndTime)
	b.ApprovedAt = cloneTime(b.ApprovedAt)
	return b
}

func clonePackage(p models.MediaPackage) models.MediaPackage {
	p.PackageConfig = cloneJSONMap(p.PackageConfig)
	return p
}

func cloneProduct(p models.Product) models.Product {
	p.FormatIDs = cloneSlice(p.FormatIDs)
	p.Placements = cloneSlice(p.Placements)
	return p
}

func cloneCurrencyLimit(l models.CurrencyLimit) models.CurrencyLimit {
	l.MinPackageBudget = cloneFloat(l.MinPackageBudget)
	l.MaxDailyPackageSpend = cloneFloat(l.MaxDailyPackageSpend)
	return l
}

func cloneContext(c models.WorkflowContext) models.WorkflowContext {
	return c
}

func cloneStep(s models.WorkflowStep) models.WorkflowStep {
	s.RequestData = cloneJSONMap(s.RequestData)
	s.ResponseData = cloneJSONMap(s.ResponseData)
	s.Comments = cloneSlice(s.Comments)
	s.CompletedAt = cloneTime(s.CompletedAt)
	return s
}

func cloneMapping(m models.ObjectWorkflowMapping) models.ObjectWorkflowMapping {
	return m
}

func cloneAuditLog(l models.AuditLog) models.AuditLog {
	l.Details = cloneJSONMap(l.Details)
	return l
}

func cloneSyncJob(j models.SyncJob) models.SyncJob {
	if j.Request != nil {
		j.Request = append(datatypes.JSON(nil), j.Request...)
	}
	j.Summary = cloneJSONMap(j.Summary)
	j.CompletedAt = cloneTime(j.CompletedAt)
	return j
}

func cloneReviewTask(t models.ReviewTask) models.ReviewTask {
	t.CompletedAt = cloneTime(t.CompletedAt)
	return t
}
