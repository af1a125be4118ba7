package audit

import "strings"

// ActionEntity holds the action and entity type derived from a gRPC full method name.
type ActionEntity struct {
	Action     string
	EntityType string
}

// ParseFullMethod maps a gRPC full method (e.g. /grpc.health.v1.Health/Check) to an
// audit action and entity type. Actions are upper snake case prefixed with GRPC_, the
// entity is the lowercased service name without its "Service" suffix.
func ParseFullMethod(fullMethod string) ActionEntity {
	slash := strings.LastIndex(fullMethod, "/")
	if slash < 0 || slash == len(fullMethod)-1 {
		return ActionEntity{Action: "GRPC_UNKNOWN", EntityType: "unknown"}
	}
	method := fullMethod[slash+1:]
	service := strings.TrimPrefix(fullMethod[:slash], "/")
	if dot := strings.LastIndex(service, "."); dot >= 0 {
		service = service[dot+1:]
	}
	return ActionEntity{Action: "GRPC_" + methodToAction(method), EntityType: serviceToEntity(service)}
}

func serviceToEntity(service string) string {
	s := strings.TrimSuffix(service, "Service")
	if s == "" {
		return "unknown"
	}
	return strings.ToLower(s)
}

// methodToAction converts CamelCase to UPPER_SNAKE (ListAmenities -> LIST_AMENITIES).
func methodToAction(method string) string {
	var b strings.Builder
	for i, r := range method {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := method[i-1]
			if prev >= 'a' && prev <= 'z' || prev >= '0' && prev <= '9' {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}
