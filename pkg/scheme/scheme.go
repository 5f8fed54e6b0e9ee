// Package scheme maps static Kubernetes resource type identifiers to their
// group/version/kind/URL-path-segment tuple, and back.
package scheme

import (
	"fmt"
	"strings"
	"sync"
)

// Entry is a single registered resource type.
type Entry struct {
	Group   string
	Version string
	Kind    string
	// Path is the plural URL path segment, e.g. "pods".
	Path string
}

// Scheme is a process-global, concurrency-safe registry of resource types.
// Lookups are deterministic: the same type always resolves to the same
// Entry for the lifetime of the process.
type Scheme struct {
	mu     sync.RWMutex
	byType map[string]Entry
}

// New returns an empty Scheme. Most callers want Default, which preloads
// the built-in Kubernetes kinds.
func New() *Scheme {
	return &Scheme{byType: make(map[string]Entry)}
}

// Register adds or replaces the entry for typeName. typeName is an
// implementation-chosen identifier for a Go resource type (conventionally
// its Kind, e.g. "Pod"); callers that want a different key (e.g. a fully
// qualified Go type name) may use one consistently.
func (s *Scheme) Register(typeName string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType[typeName] = e
}

// ErrUnregistered is returned by GVK/VK when typeName has no registered
// entry. Callers should fall back to GuessPath.
type ErrUnregistered struct{ TypeName string }

func (e *ErrUnregistered) Error() string {
	return fmt.Sprintf("scheme: no entry registered for type %q", e.TypeName)
}

// GVK resolves typeName to its group, version, kind, and plural URL path.
func (s *Scheme) GVK(typeName string) (group, version, kind, path string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byType[typeName]
	if !ok {
		return "", "", "", "", &ErrUnregistered{TypeName: typeName}
	}
	return e.Group, e.Version, e.Kind, e.Path, nil
}

// VK resolves typeName to its apiVersion (group/version, or just version
// for the core group) and kind.
func (s *Scheme) VK(typeName string) (apiVersion, kind string, err error) {
	group, version, kind, _, err := s.GVK(typeName)
	if err != nil {
		return "", "", err
	}
	if group == "" {
		return version, kind, nil
	}
	return group + "/" + version, kind, nil
}

// GuessPath heuristically pluralizes an English kind name into a URL path
// segment, for use when only a kind string is known (no scheme entry).
// Mirrors the common Kubernetes kind -> resource pluralization rules.
func GuessPath(kind string) string {
	lower := strings.ToLower(kind)
	switch {
	case strings.HasSuffix(lower, "s"),
		strings.HasSuffix(lower, "x"),
		strings.HasSuffix(lower, "z"),
		strings.HasSuffix(lower, "ch"),
		strings.HasSuffix(lower, "sh"):
		return lower + "es"
	case strings.HasSuffix(lower, "y") && !endsInVowelY(lower):
		return lower[:len(lower)-1] + "ies"
	default:
		return lower + "s"
	}
}

func endsInVowelY(s string) bool {
	if len(s) < 2 {
		return false
	}
	switch s[len(s)-2] {
	case 'a', 'e', 'i', 'o', 'u':
		return true
	default:
		return false
	}
}

// SplitAPIVersion splits a "group/version" (or bare "version" for the core
// group) string on the first slash.
func SplitAPIVersion(apiVersion string) (group, version string) {
	if idx := strings.Index(apiVersion, "/"); idx >= 0 {
		return apiVersion[:idx], apiVersion[idx+1:]
	}
	return "", apiVersion
}

// Default is the process-global scheme preloaded with built-in Kubernetes
// kinds. Custom kinds may be registered at startup with Default.Register.
var Default = newDefault()

func newDefault() *Scheme {
	s := New()
	for _, e := range builtins {
		s.Register(e.Kind, e)
	}
	return s
}

var builtins = []Entry{
	{Group: "", Version: "v1", Kind: "Pod", Path: "pods"},
	{Group: "", Version: "v1", Kind: "Service", Path: "services"},
	{Group: "", Version: "v1", Kind: "Namespace", Path: "namespaces"},
	{Group: "", Version: "v1", Kind: "Node", Path: "nodes"},
	{Group: "", Version: "v1", Kind: "ConfigMap", Path: "configmaps"},
	{Group: "", Version: "v1", Kind: "Secret", Path: "secrets"},
	{Group: "", Version: "v1", Kind: "Event", Path: "events"},
	{Group: "", Version: "v1", Kind: "Endpoints", Path: "endpoints"},
	{Group: "", Version: "v1", Kind: "ServiceAccount", Path: "serviceaccounts"},
	{Group: "", Version: "v1", Kind: "PersistentVolume", Path: "persistentvolumes"},
	{Group: "", Version: "v1", Kind: "PersistentVolumeClaim", Path: "persistentvolumeclaims"},
	{Group: "", Version: "v1", Kind: "ReplicationController", Path: "replicationcontrollers"},
	{Group: "apps", Version: "v1", Kind: "Deployment", Path: "deployments"},
	{Group: "apps", Version: "v1", Kind: "ReplicaSet", Path: "replicasets"},
	{Group: "apps", Version: "v1", Kind: "StatefulSet", Path: "statefulsets"},
	{Group: "apps", Version: "v1", Kind: "DaemonSet", Path: "daemonsets"},
	{Group: "batch", Version: "v1", Kind: "Job", Path: "jobs"},
	{Group: "batch", Version: "v1", Kind: "CronJob", Path: "cronjobs"},
	{Group: "networking.k8s.io", Version: "v1", Kind: "Ingress", Path: "ingresses"},
	{Group: "networking.k8s.io", Version: "v1", Kind: "NetworkPolicy", Path: "networkpolicies"},
	{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "Role", Path: "roles"},
	{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "RoleBinding", Path: "rolebindings"},
	{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "ClusterRole", Path: "clusterroles"},
	{Group: "rbac.authorization.k8s.io", Version: "v1", Kind: "ClusterRoleBinding", Path: "clusterrolebindings"},
	{Group: "policy", Version: "v1", Kind: "PodDisruptionBudget", Path: "poddisruptionbudgets"},
	{Group: "storage.k8s.io", Version: "v1", Kind: "StorageClass", Path: "storageclasses"},
	{Group: "autoscaling", Version: "v2", Kind: "HorizontalPodAutoscaler", Path: "horizontalpodautoscalers"},
	{Group: "apiextensions.k8s.io", Version: "v1", Kind: "CustomResourceDefinition", Path: "customresourcedefinitions"},
}
