package sqlinline

// Column order shared by every query returning a full videos row:
// id, prompt, status, progress, video_url, error, duration, style,
// aspect_ratio, provider, task_id, mode, country, created_at, updated_at,
// completed_at, failed_at.

const QInsertVideo = `--sql ecd6395e-0d46-4d43-ade8-9217998eaf65
insert into videos (
  id, prompt, status, progress, video_url, error, duration, style,
  aspect_ratio, provider, task_id, mode, country, created_at, updated_at,
  completed_at, failed_at
) values (
  $1::text, $2::text, $3::text, $4::int, $5::text, $6::text, $7::int, $8::text,
  $9::text, $10::text, $11::text, $12::text, $13::text, $14::timestamptz, $15::timestamptz,
  $16::timestamptz, $17::timestamptz
);
`

const QSelectVideo = `--sql 042974e8-65b7-4331-9f0f-af25921855da
select id, prompt, status, progress, video_url, error, duration, style,
  aspect_ratio, provider, task_id, mode, country, created_at, updated_at,
  completed_at, failed_at
from videos
where id = $1::text;
`

// QUpdateVideo persists a state change computed in Go. The status guard keeps
// a concurrent writer from reopening a job that already reached a terminal state.
const QUpdateVideo = `--sql 5031c329-af77-42a6-bea6-b8dd302c8e79
update videos set
  status = $2::text,
  progress = $3::int,
  video_url = $4::text,
  error = $5::text,
  task_id = $6::text,
  mode = $7::text,
  updated_at = $8::timestamptz,
  completed_at = $9::timestamptz,
  failed_at = $10::timestamptz
where id = $1::text
  and status not in ('completed', 'failed');
`

const QListVideos = `--sql 38e029e7-1e77-4e62-b8e7-e48d759bf416
select id, prompt, status, progress, video_url, error, duration, style,
  aspect_ratio, provider, task_id, mode, country, created_at, updated_at,
  completed_at, failed_at
from videos
order by created_at desc, id desc
limit $1::int;
`

const QListActiveVideos = `--sql 6a716ec0-e21a-4244-8e0b-531e03fc650f
select id, prompt, status, progress, video_url, error, duration, style,
  aspect_ratio, provider, task_id, mode, country, created_at, updated_at,
  completed_at, failed_at
from videos
where status not in ('completed', 'failed')
order by created_at asc;
`

const QDeleteVideo = `--sql 0cb535ce-65a0-47f4-b500-fca8cb3aa392
delete from videos
where id = $1::text;
`

const QDeleteVideosBefore = `--sql 5475acb1-7b91-4498-bd26-8a9b9403dac4
delete from videos
where created_at < $1::timestamptz;
`
