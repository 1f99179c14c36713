package sqlinline

const QEnsureAvatarJobsTable = `--sql 3f7aaf7c-071e-4f4b-9b8f-9624764c75fc
create table if not exists avatar_jobs (
    id            text primary key,
    trainer_id    text not null,
    topic_id      text not null,
    language_code text not null,
    mode          text not null,
    status        text not null,
    video_id      text not null default '',
    steps         jsonb not null default '[]'::jsonb,
    started_at    timestamptz not null,
    completed_at  timestamptz,
    updated_at    timestamptz not null default now()
);
create index if not exists avatar_jobs_status_started_idx on avatar_jobs (status, started_at);
`

const QInsertAvatarJob = `--sql 9a584cba-7395-468a-a428-2b0a76c91600
insert into avatar_jobs (id, trainer_id, topic_id, language_code, mode, status, video_id, steps, started_at, completed_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, now())
on conflict (id) do nothing;
`

// QUpsertAvatarJob only touches rows of the same trainer that are still in progress.
const QUpsertAvatarJob = `--sql f2fa69a0-e4a7-4cf0-847a-a07338772f68
insert into avatar_jobs (id, trainer_id, topic_id, language_code, mode, status, video_id, steps, started_at, completed_at, updated_at)
values ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, now())
on conflict (id) do update
set topic_id      = excluded.topic_id,
    language_code = excluded.language_code,
    mode          = excluded.mode,
    status        = excluded.status,
    video_id      = excluded.video_id,
    steps         = excluded.steps,
    started_at    = excluded.started_at,
    completed_at  = excluded.completed_at,
    updated_at    = now()
where avatar_jobs.trainer_id = excluded.trainer_id
  and avatar_jobs.status = 'in_progress';
`

const QSelectAvatarJob = `--sql 766a4b72-bebd-408e-a312-0d1c75199632
select id, trainer_id, topic_id, language_code, mode, status, video_id, steps, started_at, completed_at
from avatar_jobs
where id = $1;
`

const QSelectStaleAvatarJobs = `--sql 261947b7-873f-4239-b19a-a215ff19ec36
select id, trainer_id, topic_id, language_code, mode, status, video_id, steps, started_at, completed_at
from avatar_jobs
where status = 'in_progress'
  and started_at < $1
order by started_at asc
limit 100;
`
