package sqlinline

// Schema creates every table the service reads or writes. Statements are
// idempotent so cmd/migrate can run on every deploy.
var Schema = []string{
	`create table if not exists videos (
  id text primary key,
  prompt text not null,
  status text not null default 'pending',
  progress int not null default 0,
  video_url text not null default '',
  error text not null default '',
  duration int not null default 10,
  style text not null default 'cinematic',
  aspect_ratio text not null default '16:9',
  provider text not null default 'runway',
  task_id text not null default '',
  mode text not null default 'production',
  country text not null default '',
  created_at timestamptz not null default now(),
  updated_at timestamptz not null default now(),
  completed_at timestamptz,
  failed_at timestamptz,
  constraint videos_status_check check (status in ('pending', 'generating', 'processing', 'completed', 'failed')),
  constraint videos_progress_check check (progress between 0 and 100)
);`,
	`create index if not exists videos_created_at_idx on videos (created_at desc);`,
	`create index if not exists videos_active_idx on videos (status) where status not in ('completed', 'failed');`,
	`create table if not exists provider_keys (
  provider text primary key,
  api_key text not null,
  key_hint text not null default '',
  rotated_at timestamptz not null default now()
);`,
}
