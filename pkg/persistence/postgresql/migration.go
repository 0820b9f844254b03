package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			-- Create steps table
			CREATE TABLE steps (
				id UUID PRIMARY KEY,
				slug VARCHAR(255) NOT NULL,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL,
				content JSONB NOT NULL DEFAULT '[]',
				tags TEXT[] NOT NULL DEFAULT '{}',
				category VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL DEFAULT 'review',
				created_by VARCHAR(255) NOT NULL,
				modified_by VARCHAR(255),
				approved_by VARCHAR(255),
				approval_date TIMESTAMP WITH TIME ZONE,
				rejection_reason TEXT,
				count_modified INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				last_modified TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_steps_slug ON steps(slug);
			CREATE INDEX idx_steps_slug_lower ON steps(LOWER(slug));
			CREATE INDEX idx_steps_title_lower ON steps(LOWER(title));
			CREATE INDEX idx_steps_status ON steps(status);
			CREATE INDEX idx_steps_category ON steps(category);
			CREATE INDEX idx_steps_last_modified ON steps(last_modified);

			-- Audit and discussion trails live and die with their step
			CREATE TABLE step_history (
				id UUID PRIMARY KEY,
				step_id UUID NOT NULL REFERENCES steps(id) ON DELETE CASCADE,
				action VARCHAR(50) NOT NULL,
				changed_by VARCHAR(255) NOT NULL,
				summary TEXT NOT NULL,
				changes JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_step_history_step_id ON step_history(step_id, created_at DESC);

			CREATE TABLE step_approvals (
				id UUID PRIMARY KEY,
				step_id UUID NOT NULL REFERENCES steps(id) ON DELETE CASCADE,
				approved_by VARCHAR(255) NOT NULL,
				associated_use_case_ids TEXT[] NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_step_approvals_step_id ON step_approvals(step_id, created_at DESC);

			CREATE TABLE step_comments (
				id UUID PRIMARY KEY,
				step_id UUID NOT NULL REFERENCES steps(id) ON DELETE CASCADE,
				author VARCHAR(255) NOT NULL,
				body TEXT NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_step_comments_step_id ON step_comments(step_id, created_at DESC);

			-- Create use_cases table; step_refs holds step ids or alternate keys, in order
			CREATE TABLE use_cases (
				id UUID PRIMARY KEY,
				title VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				category VARCHAR(255) NOT NULL DEFAULT '',
				tags TEXT[] NOT NULL DEFAULT '{}',
				step_refs JSONB NOT NULL DEFAULT '[]',
				status VARCHAR(50) NOT NULL DEFAULT 'draft',
				created_by VARCHAR(255) NOT NULL,
				modified_by VARCHAR(255),
				count_modified INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				last_modified TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_use_cases_status ON use_cases(status);
			CREATE INDEX idx_use_cases_last_modified ON use_cases(last_modified);

			-- Create use_case_addons table
			CREATE TABLE use_case_addons (
				id UUID PRIMARY KEY,
				base_use_case_id UUID NOT NULL REFERENCES use_cases(id) ON DELETE CASCADE,
				addon_use_case_id UUID NOT NULL REFERENCES use_cases(id) ON DELETE CASCADE,
				path_name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				display_order INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (base_use_case_id, addon_use_case_id)
			);

			CREATE INDEX idx_use_case_addons_addon ON use_case_addons(addon_use_case_id);

			-- Addon steps are owned by their addon. step_id and source_use_case_id
			-- are plain references: deleting a step or use case leaves the addon
			-- step in place and reads report it missing.
			CREATE TABLE addon_steps (
				id UUID PRIMARY KEY,
				addon_id UUID NOT NULL REFERENCES use_case_addons(id) ON DELETE CASCADE,
				step_order INTEGER NOT NULL,
				step_id UUID,
				source_use_case_id UUID,
				custom_title VARCHAR(255),
				custom_description TEXT,
				custom_content JSONB,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_addon_steps_addon_id ON addon_steps(addon_id, step_order);
		`,
	}
}
