package model

// Type guards for callers holding objects as any (API layers deserialize
// into the base record first, then narrow).

func IsProject(v any) bool {
	p, ok := v.(*Project)
	return ok && p.ObjectType == ObjectTypeProject
}

func IsCollection(v any) bool {
	c, ok := v.(*Collection)
	return ok && c.ObjectType == ObjectTypeCollection
}

func IsEntry(v any) bool {
	e, ok := v.(*Entry)
	return ok && e.ObjectType == ObjectTypeEntry
}

func IsAsset(v any) bool {
	a, ok := v.(*Asset)
	return ok && a.ObjectType == ObjectTypeAsset
}
