package stage

// BlockOptions is the full option catalog grouped by stage, in the shape
// served to clients.
type BlockOptions struct {
	TargetTypes     []Option `json:"target_types"`
	MagicSchools    []Option `json:"magic_schools"`
	ProjectileForms []Option `json:"projectile_forms"`
}

// Catalog returns a copy of every stage's options.
func Catalog() BlockOptions {
	return BlockOptions{
		TargetTypes:     Target.Options(),
		MagicSchools:    MagicSchool.Options(),
		ProjectileForms: ProjectileForm.Options(),
	}
}
